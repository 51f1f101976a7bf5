package onnx

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTensorShapeAndNormalization(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: 124, G: 116, B: 104, A: 255})
		}
	}
	data := toTensor(img, 224, 224)
	require.Len(t, data, 3*224*224)
	// 124/255 ~= mean of the red channel, so normalized values sit near zero
	for c := 0; c < 3; c++ {
		v := data[c*224*224]
		assert.InDelta(t, 0, float64(v), 0.1, "channel %d", c)
	}
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{1, 2, 3})
	require.Len(t, probs, 3)
	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.True(t, probs[2] > probs[1] && probs[1] > probs[0])

	// large logits must not overflow
	probs = softmax([]float32{1000, 1000})
	assert.False(t, math.IsNaN(probs[0]))
	assert.InDelta(t, 0.5, probs[0], 1e-9)

	assert.Nil(t, softmax(nil))
}

func TestTopK(t *testing.T) {
	probs := []float64{0.1, 0.6, 0.3}
	labels := []string{"cat", "dog", "fox"}
	preds := topK(probs, labels, 2)
	require.Len(t, preds, 2)
	assert.Equal(t, "dog", preds[0].Label)
	assert.Equal(t, 0.6, preds[0].Score)
	assert.Equal(t, "fox", preds[1].Label)

	// k beyond range returns everything; missing labels fall back
	preds = topK(probs, []string{"cat"}, 10)
	require.Len(t, preds, 3)
	assert.Equal(t, "class 1", preds[0].Label)
}

func TestLoadLabels(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "labels.txt")
	require.NoError(t, os.WriteFile(p, []byte("tabby cat\n\n  dog  \n"), 0o644))
	labels, err := loadLabels(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"tabby cat", "dog"}, labels)

	_, err = loadLabels(filepath.Join(d, "missing.txt"))
	assert.Error(t, err)
}

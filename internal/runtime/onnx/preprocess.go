package onnx

import (
	"bufio"
	"fmt"
	"image"
	"math"
	"os"
	"sort"
	"strings"

	"inferd/internal/imaging"
	"inferd/pkg/types"
)

// ImageNet normalization constants, the convention ViT-style classifiers are
// exported with.
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// toTensor resizes img to w x h and converts it to a normalized NCHW float32
// tensor with batch size 1.
func toTensor(img image.Image, w, h int) []float32 {
	resized := imaging.Resize(img, w, h)
	data := make([]float32, 3*w*h)
	plane := w * h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := resized.PixOffset(x, y)
			px := y*w + x
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[i+c]) / 255.0
				data[c*plane+px] = (v - normMean[c]) / normStd[c]
			}
		}
	}
	return data
}

// softmax converts logits to probabilities, numerically stabilized.
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - max))
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// topK ranks probabilities and resolves labels. Indexes without a label fall
// back to "class <i>".
func topK(probs []float64, labels []string, k int) []types.Prediction {
	if k <= 0 || k > len(probs) {
		k = len(probs)
	}
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })
	preds := make([]types.Prediction, 0, k)
	for _, i := range idx[:k] {
		label := fmt.Sprintf("class %d", i)
		if i < len(labels) {
			label = labels[i]
		}
		preds = append(preds, types.Prediction{Label: label, Score: probs[i]})
	}
	return preds
}

// loadLabels reads one label per line, skipping blanks.
func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()
	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

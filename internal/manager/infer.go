package manager

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"
	"time"

	"inferd/internal/imaging"
	rt "inferd/internal/runtime"
	"inferd/pkg/types"
)

// resolveTarget picks the model a request addresses: the explicitly named one,
// else the resident model, else the server default. The chosen model's
// capability must match the request shape.
func (m *Manager) resolveTarget(reqModel string, want types.Capability) (types.Model, error) {
	id := reqModel
	if id == "" {
		m.mu.RLock()
		if m.resident != nil {
			id = m.resident.Model.ID
		}
		m.mu.RUnlock()
	}
	if id == "" {
		id = m.defaultModel
	}
	if id == "" {
		return types.Model{}, ErrModelNotFound("(unspecified)")
	}
	mdl, ok := m.getModelByID(id)
	if !ok {
		return types.Model{}, ErrModelNotFound(id)
	}
	if mdl.Capability != want {
		return types.Model{}, ErrCapabilityMismatch(fmt.Sprintf(
			"model %s is %s, request needs %s", mdl.ID, mdl.Capability, want))
	}
	return mdl, nil
}

// Generate runs a text-to-image request. The target model is loaded on demand
// if it is not already resident.
func (m *Manager) Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrInvalidInput("prompt is required")
	}
	if len(prompt) > maxPromptLen {
		return nil, ErrInvalidInput(fmt.Sprintf("prompt exceeds %d characters", maxPromptLen))
	}
	mdl, err := m.resolveTarget(req.Model, types.CapabilityTextToImage)
	if err != nil {
		return nil, err
	}
	if err := m.ensureResident(ctx, mdl.ID); err != nil {
		return nil, err
	}
	inst, release, err := m.beginInference(ctx, mdl.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	gen, ok := inst.rt.(rt.Generator)
	if !ok {
		return nil, ErrBackendUnavailable(fmt.Sprintf("model %s runtime cannot generate images", mdl.ID))
	}

	start := time.Now()
	res, err := gen.Generate(ctx, rt.GenerateParams{
		Prompt:         prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		Seed:           req.Seed,
	})
	dur := time.Since(start)
	if err != nil {
		inferenceErrorsMetric.WithLabelValues(string(types.CapabilityTextToImage)).Inc()
		m.recordInferError(mdl.ID, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	inferenceDurationMetric.WithLabelValues(string(types.CapabilityTextToImage)).Observe(dur.Seconds())

	artifact := types.ImageArtifact{
		Width:     res.Width,
		Height:    res.Height,
		Format:    "png",
		SizeBytes: len(res.PNG),
		Data:      res.PNG,
	}
	m.setLastResult(types.InferenceResult{
		Kind:          "image",
		Model:         mdl.ID,
		Capability:    types.CapabilityTextToImage,
		Prompt:        prompt,
		Image:         &artifact,
		ElapsedMS:     dur.Milliseconds(),
		CompletedUnix: time.Now().Unix(),
	})
	m.log.Info().Str("model", mdl.ID).Dur("dur", dur).Int("bytes", len(res.PNG)).Msg("generate done")
	m.publisher.Publish(Event{Name: "infer_done", ModelID: mdl.ID, Fields: map[string]any{"kind": "image", "ms": dur.Milliseconds()}})

	return &types.GenerateResponse{
		Model:       mdl.ID,
		Seed:        res.Seed,
		ImageBase64: base64.StdEncoding.EncodeToString(res.PNG),
		Image:       artifact,
		ElapsedMS:   dur.Milliseconds(),
	}, nil
}

// Classify runs an image-classification request. The target model is loaded
// on demand if it is not already resident.
func (m *Manager) Classify(ctx context.Context, req types.ClassifyRequest) (*types.ClassifyResponse, error) {
	img, err := decodeClassifyInput(req)
	if err != nil {
		return nil, err
	}
	mdl, err := m.resolveTarget(req.Model, types.CapabilityImageClassification)
	if err != nil {
		return nil, err
	}
	if err := m.ensureResident(ctx, mdl.ID); err != nil {
		return nil, err
	}
	inst, release, err := m.beginInference(ctx, mdl.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	clf, ok := inst.rt.(rt.Classifier)
	if !ok {
		return nil, ErrBackendUnavailable(fmt.Sprintf("model %s runtime cannot classify images", mdl.ID))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	start := time.Now()
	preds, err := clf.Classify(ctx, img, topK)
	dur := time.Since(start)
	if err != nil {
		inferenceErrorsMetric.WithLabelValues(string(types.CapabilityImageClassification)).Inc()
		m.recordInferError(mdl.ID, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	inferenceDurationMetric.WithLabelValues(string(types.CapabilityImageClassification)).Observe(dur.Seconds())

	m.setLastResult(types.InferenceResult{
		Kind:          "classifications",
		Model:         mdl.ID,
		Capability:    types.CapabilityImageClassification,
		Predictions:   preds,
		ElapsedMS:     dur.Milliseconds(),
		CompletedUnix: time.Now().Unix(),
	})
	m.log.Info().Str("model", mdl.ID).Dur("dur", dur).Int("labels", len(preds)).Msg("classify done")
	m.publisher.Publish(Event{Name: "infer_done", ModelID: mdl.ID, Fields: map[string]any{"kind": "classifications", "ms": dur.Milliseconds()}})

	return &types.ClassifyResponse{
		Model:       mdl.ID,
		Predictions: preds,
		ElapsedMS:   dur.Milliseconds(),
	}, nil
}

// decodeClassifyInput validates that exactly one image source is supplied and
// decodes it.
func decodeClassifyInput(req types.ClassifyRequest) (image.Image, error) {
	hasPath := strings.TrimSpace(req.ImagePath) != ""
	hasB64 := strings.TrimSpace(req.ImageBase64) != ""
	switch {
	case hasPath && hasB64:
		return nil, ErrInvalidInput("supply either image_path or image_base64, not both")
	case hasPath:
		img, _, err := imaging.DecodeFile(req.ImagePath)
		if err != nil {
			return nil, ErrInvalidInput(err.Error())
		}
		return img, nil
	case hasB64:
		img, _, err := imaging.DecodeBase64(req.ImageBase64)
		if err != nil {
			return nil, ErrInvalidInput(err.Error())
		}
		return img, nil
	default:
		return nil, ErrInvalidInput("an image is required: set image_path or image_base64")
	}
}

func (m *Manager) recordInferError(modelID string, err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
	m.log.Error().Str("model", modelID).Err(err).Msg("inference failed")
	m.publisher.Publish(Event{Name: "infer_error", ModelID: modelID, Fields: map[string]any{"error": err.Error()}})
}

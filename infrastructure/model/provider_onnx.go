package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// OnnxDefaultMaxSeqLen caps token sequences fed to the local model.
	OnnxDefaultMaxSeqLen = 256
)

func init() {
	RegisterProviderFactory("onnx", newOnnxProvider)
}

// Process-wide onnxruntime environment. Initialized lazily on first adapter
// construction and torn down only at process exit; reinitializing or
// destroying it mid-run would invalidate every open session.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initOnnxRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// onnxProvider runs a local text-classification model (e.g. a DistilBERT
// sentiment head exported to ONNX) through onnxruntime. The session is
// created once at construction; onnxruntime inference sessions are safe for
// concurrent read-only Run calls, so no request serialization is needed.
type onnxProvider struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *tokenizer.Tokenizer
	modelID   string
	maxSeqLen int
}

// newOnnxProvider loads the tokenizer and model weights and opens an
// inference session. Any failure here (missing weights, incompatible
// runtime) surfaces at adapter construction, never per-call.
func newOnnxProvider(config AdapterConfig) (CoreModel, error) {
	if config.ModelPath == "" {
		return nil, errors.New("model path is required for the onnx provider")
	}
	if config.TokenizerPath == "" {
		return nil, errors.New("tokenizer path is required for the onnx provider")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("model weights not found: %w", err)
	}

	if err := initOnnxRuntime(config.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	tk, err := pretrained.FromFile(config.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		config.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("open inference session: %w", err)
	}

	maxSeqLen := config.MaxSeqLen
	if maxSeqLen <= 0 {
		maxSeqLen = OnnxDefaultMaxSeqLen
	}

	modelID := config.Model
	if modelID == "" {
		modelID = config.ModelPath
	}

	return &onnxProvider{
		session:   session,
		tokenizer: tk,
		modelID:   modelID,
		maxSeqLen: maxSeqLen,
	}, nil
}

// Classify tokenizes text, runs the classification head, and returns the
// softmax confidence of the predicted class. This is the fixed score
// mapping for local models: whichever label wins, its confidence is the
// priority signal, matching the behavior of standard sentiment pipelines.
func (p *onnxProvider) Classify(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	encoding, err := p.tokenizer.EncodeSingle(text, true)
	if err != nil {
		return 0, fmt.Errorf("tokenize: %w", err)
	}

	ids := encoding.Ids
	if len(ids) == 0 {
		return 0, errors.New("tokenizer produced no tokens")
	}
	if len(ids) > p.maxSeqLen {
		ids = ids[:p.maxSeqLen]
	}

	seqLen := len(ids)
	inputIDs := make([]int64, seqLen)
	attentionMask := make([]int64, seqLen)
	for i, id := range ids {
		inputIDs[i] = int64(id)
		attentionMask[i] = 1
	}

	shape := ort.NewShape(1, int64(seqLen))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return 0, fmt.Errorf("create mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{idsTensor, maskTensor}, outputs); err != nil {
		return 0, fmt.Errorf("run inference: %w", err)
	}
	defer outputs[0].Destroy()

	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}

	logits := logitsTensor.GetData()
	if len(logits) == 0 {
		return 0, errors.New("model produced no logits")
	}

	return maxSoftmax(logits), nil
}

// ModelID returns the configured model identifier.
func (p *onnxProvider) ModelID() string { return p.modelID }

// maxSoftmax returns the largest softmax probability over a logit row,
// computed in a numerically stable way.
func maxSoftmax(logits []float32) float64 {
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}

	var sum float64
	for _, l := range logits {
		sum += math.Exp(float64(l) - maxLogit)
	}
	// The max logit contributes exp(0) = 1 to the sum.
	return 1.0 / sum
}

// Package onnxsession wraps github.com/yalue/onnxruntime_go behind a small
// Session interface so detector, classifier, and recognizer code depends on
// a stable contract rather than the runtime's dynamically-typed Value
// values. internal/mocksession implements the same interface without a
// native ONNX Runtime library, so pipeline tests do not need one installed.
package onnxsession

import (
	"fmt"
	"sync"

	"github.com/dvocr/dvocr/internal/ocrerrors"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// TensorView is a concrete, read-only view over one model output: its
// float32 data in row-major order and its shape. Session.Run always returns
// TensorView values rather than the runtime's polymorphic Value interface,
// so callers never need a type switch on output kind.
type TensorView struct {
	Data  []float32
	Shape []int64
}

// Session is the contract detector, classifier, and recognizer code uses to
// run inference, independent of the concrete runtime behind it.
type Session interface {
	// InputNames returns the model's input tensor names, in the order Run
	// expects its inputs argument.
	InputNames() []string
	// OutputNames returns the model's output tensor names, in the order Run
	// returns its results.
	OutputNames() []string
	// Run executes one inference pass. inputs must align 1:1 with
	// InputNames(); each entry carries its own shape. Returns one TensorView
	// per OutputNames() entry.
	Run(inputs []TensorInput) ([]TensorView, error)
	// Close releases any resources held by the session.
	Close() error
}

// TensorInput is one named model input: float32 data plus its shape.
type TensorInput struct {
	Data  []float32
	Shape []int64
}

var libraryInit sync.Once
var libraryInitErr error

// initOnce sets the shared library path and initializes the ONNX Runtime
// environment exactly once per process.
func initOnce(useGPU bool) error {
	libraryInit.Do(func() {
		if err := setLibraryPath(useGPU); err != nil {
			libraryInitErr = err
			return
		}
		if !onnxrt.IsInitialized() {
			libraryInitErr = onnxrt.InitializeEnvironment()
		}
	})
	return libraryInitErr
}

// Options configures how a real onnxruntime-backed Session is constructed.
type Options struct {
	NumThreads int
	GPU        GPUConfig
}

// onnxSession is the real Session implementation, backed by a
// DynamicAdvancedSession from github.com/yalue/onnxruntime_go.
type onnxSession struct {
	mu          sync.Mutex // serializes Run and Close on the native session
	session     *onnxrt.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
}

// New loads the model at modelPath and returns a Session bound to its
// declared inputs and outputs. stage names the pipeline stage in any
// InferenceError returned, for example "detector" or "recognizer".
func New(stage, modelPath string, opts Options) (Session, error) {
	if err := opts.GPU.Validate(); err != nil {
		return nil, ocrerrors.NewConfigError(stage+".gpu", err)
	}
	if err := initOnce(opts.GPU.UseGPU); err != nil {
		return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("initialize onnxruntime: %w", err))
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("read model io info: %w", err))
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("model declares no inputs/outputs: %s", modelPath))
	}

	sessionOptions, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("create session options: %w", err))
	}
	defer func() { _ = sessionOptions.Destroy() }()

	if err := configureGPU(sessionOptions, opts.GPU); err != nil {
		return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("configure gpu: %w", err))
	}
	if opts.NumThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(opts.NumThreads); err != nil {
			return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("set thread count: %w", err))
		}
	}

	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}
	outputNames := make([]string, len(outputs))
	for i, out := range outputs {
		outputNames[i] = out.Name
	}

	sess, err := onnxrt.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, sessionOptions)
	if err != nil {
		return nil, ocrerrors.NewInferenceError(stage, fmt.Errorf("create session: %w", err))
	}

	return &onnxSession{session: sess, inputNames: inputNames, outputNames: outputNames}, nil
}

func (s *onnxSession) InputNames() []string  { return s.inputNames }
func (s *onnxSession) OutputNames() []string { return s.outputNames }

func (s *onnxSession) Run(inputs []TensorInput) ([]TensorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, ocrerrors.NewInferenceError("session", fmt.Errorf("session is closed"))
	}
	if len(inputs) != len(s.inputNames) {
		return nil, ocrerrors.NewArgumentError("session.run",
			fmt.Errorf("expected %d inputs, got %d", len(s.inputNames), len(inputs)))
	}

	values := make([]onnxrt.Value, len(inputs))
	for i, in := range inputs {
		tensor, err := onnxrt.NewTensor(onnxrt.NewShape(in.Shape...), in.Data)
		if err != nil {
			for _, v := range values[:i] {
				if v != nil {
					_ = v.Destroy()
				}
			}
			return nil, ocrerrors.NewArgumentError("session.run", fmt.Errorf("build input tensor %d: %w", i, err))
		}
		values[i] = tensor
	}
	defer func() {
		for _, v := range values {
			if v != nil {
				_ = v.Destroy()
			}
		}
	}()

	outputs := make([]onnxrt.Value, len(s.outputNames))
	if err := s.session.Run(values, outputs); err != nil {
		return nil, ocrerrors.NewInferenceError("session", fmt.Errorf("run: %w", err))
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	views := make([]TensorView, len(outputs))
	for i, o := range outputs {
		t, ok := o.(*onnxrt.Tensor[float32])
		if !ok {
			return nil, ocrerrors.NewInferenceError("session", fmt.Errorf("output %d is not a float32 tensor", i))
		}
		shape := t.GetShape()
		shapeCopy := make([]int64, len(shape))
		copy(shapeCopy, shape)
		dataCopy := make([]float32, len(t.GetData()))
		copy(dataCopy, t.GetData())
		views[i] = TensorView{Data: dataCopy, Shape: shapeCopy}
	}
	return views, nil
}

func (s *onnxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}

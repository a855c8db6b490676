// Package detect - ONNX detector session and split evaluation.
package detect

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/artbench/go-peopleart/metrics"
)

var ortInit sync.Once

// SessionConfig configures one detector session.
type SessionConfig struct {
	// ModelPath is the ONNX weights file.
	ModelPath string
	// InputSize is the square model input edge in pixels.
	InputSize int
	// Classes is the number of classes in the model head.
	Classes int
	// Confidence is the minimum score to keep a detection.
	Confidence float32
	// NMSIoU is the overlap threshold for greedy suppression.
	NMSIoU float32
	// InputName and OutputName identify the model tensors. Empty values
	// default to the ultralytics export names.
	InputName  string
	OutputName string
}

func (c *SessionConfig) applyDefaults() {
	if c.InputName == "" {
		c.InputName = "images"
	}
	if c.OutputName == "" {
		c.OutputName = "output0"
	}
}

// Session wraps an onnxruntime session with fixed input/output tensors.
// The expected model contract is a float32 [1,3,H,W] input and a YOLO-style
// [1,4+classes,anchors] output.
type Session struct {
	cfg     SessionConfig
	anchors int

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewSession loads the model and allocates its tensors.
func NewSession(cfg SessionConfig) (*Session, error) {
	cfg.applyDefaults()

	var initErr error
	ortInit.Do(func() {
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "initialize onnxruntime")
	}

	s := &Session{
		cfg: cfg,
		// Anchor count for the three YOLO strides.
		anchors: (cfg.InputSize/8)*(cfg.InputSize/8) +
			(cfg.InputSize/16)*(cfg.InputSize/16) +
			(cfg.InputSize/32)*(cfg.InputSize/32),
	}
	if err := s.open(cfg.ModelPath); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) open(modelPath string) error {
	input, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, int64(s.cfg.InputSize), int64(s.cfg.InputSize)))
	if err != nil {
		return errors.Wrap(err, "create input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, int64(4+s.cfg.Classes), int64(s.anchors)))
	if err != nil {
		input.Destroy()
		return errors.Wrap(err, "create output tensor")
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{s.cfg.InputName},
		[]string{s.cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return errors.Wrapf(err, "create session for %s", modelPath)
	}

	s.input = input
	s.output = output
	s.session = session
	return nil
}

// SwapWeights replaces the loaded model, keeping the session configuration.
func (s *Session) SwapWeights(modelPath string) error {
	s.release()
	s.cfg.ModelPath = modelPath
	return s.open(modelPath)
}

// Detect runs the model on one image and returns detections in the image's
// original pixel space, confidence-filtered and suppressed.
func (s *Session) Detect(img image.Image) ([]metrics.Detection, error) {
	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	lb := letterboxInto(img, s.cfg.InputSize, s.input.GetData())
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "run inference")
	}
	dets := decodeOutput(s.output.GetData(), s.cfg.Classes, s.anchors, lb, s.cfg.Confidence)
	return greedyNMS(dets, s.cfg.NMSIoU), nil
}

// Close releases the session and its tensors.
func (s *Session) Close() error {
	s.release()
	return nil
}

func (s *Session) release() {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}

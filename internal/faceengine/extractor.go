package faceengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/verilink/profile-verify/internal/config"
)

// maxUploadDim is the longest image edge sent to the engine. Larger images
// are downscaled first to keep uploads small.
const maxUploadDim = 1600

// NoFaceReason says why no usable face embedding came out of an image.
type NoFaceReason int

const (
	// ReasonDecode means the payload is not a decodable image.
	ReasonDecode NoFaceReason = iota
	// ReasonNoFace means the image decoded fine but contains no face.
	ReasonNoFace
	// ReasonLowQuality means faces were detected but all fell below the
	// detection quality threshold.
	ReasonLowQuality
)

func (r NoFaceReason) String() string {
	switch r {
	case ReasonDecode:
		return "decode error"
	case ReasonNoFace:
		return "no face detected"
	case ReasonLowQuality:
		return "all faces below quality threshold"
	default:
		return "unknown"
	}
}

// NoFaceError reports that an image yielded no usable face embedding.
type NoFaceError struct {
	Reason NoFaceReason
	Err    error
}

func (e *NoFaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no usable face: %s: %v", e.Reason, e.Err)
	}
	return "no usable face: " + e.Reason.String()
}

func (e *NoFaceError) Unwrap() error {
	return e.Err
}

// InitError reports that the face engine could not be initialized.
// This is fatal for a pipeline run, there is no degraded mode without
// face detection.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return "face engine initialization failed: " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Extractor resolves the single best face embedding from an image.
// Initialization is lazy and idempotent: the first Extract call pings the
// engine and a failure there poisons all subsequent calls.
//
// Extract is safe for concurrent use. With Serialize set, calls to the
// engine are funneled through a mutex for single-threaded inference servers.
type Extractor struct {
	client    *Client
	threshold float64
	serialize bool

	callMu   sync.Mutex
	initOnce sync.Once
	initErr  error
}

// NewExtractor creates an Extractor from config.
func NewExtractor(cfg config.FaceEngineConfig) *Extractor {
	threshold := cfg.DetectionThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Extractor{
		client:    NewClient(cfg.URL),
		threshold: threshold,
		serialize: cfg.Serialize,
	}
}

// init pings the engine exactly once; subsequent calls reuse the outcome.
func (e *Extractor) init(ctx context.Context) error {
	e.initOnce.Do(func() {
		if err := e.client.Ping(ctx); err != nil {
			e.initErr = &InitError{Err: err}
		}
	})
	return e.initErr
}

// Extract returns the embedding of the most prominent face in the image.
// Prominence is bounding box area; faces below the detection quality
// threshold are discarded first. Returns *NoFaceError when the image has
// no usable face and *InitError when the engine is down.
func (e *Extractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	// Cheap local sanity check so non-image payloads never hit the engine.
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		return nil, &NoFaceError{Reason: ReasonDecode, Err: err}
	}

	if err := e.init(ctx); err != nil {
		return nil, err
	}

	resized, err := ResizeImage(imageData, maxUploadDim)
	if err != nil {
		return nil, &NoFaceError{Reason: ReasonDecode, Err: err}
	}

	resp, err := e.detect(ctx, resized)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	if len(resp.Faces) == 0 {
		return nil, &NoFaceError{Reason: ReasonNoFace}
	}

	best := selectBestFace(resp.Faces, e.threshold)
	if best == nil {
		return nil, &NoFaceError{Reason: ReasonLowQuality}
	}

	return best.Embedding, nil
}

func (e *Extractor) detect(ctx context.Context, imageData []byte) (*FaceResponse, error) {
	if e.serialize {
		e.callMu.Lock()
		defer e.callMu.Unlock()
	}
	return e.client.DetectFaces(ctx, imageData)
}

// selectBestFace filters faces by detection quality and returns the one with
// the largest bounding box. Returns nil if no face passes the threshold.
func selectBestFace(faces []FaceDetection, threshold float64) *FaceDetection {
	var best *FaceDetection
	var bestArea float64
	for i := range faces {
		face := &faces[i]
		if face.DetScore < threshold || len(face.Embedding) == 0 {
			continue
		}
		if area := face.Area(); best == nil || area > bestArea {
			best = face
			bestArea = area
		}
	}
	return best
}

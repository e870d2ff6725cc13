package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/png"

	ort "github.com/yalue/onnxruntime_go"
)

// Embedder extracts face descriptors from aligned face crops using an
// ONNX recognition model. It exists so enrollment can accept a photo when
// the caller has no descriptor of its own; live observations always carry
// descriptors computed on the capture side.
type Embedder struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputW       int
	inputH       int
	dim          int
}

// NewEmbedder loads the recognition model. inputW/inputH are the expected
// crop size and dim the descriptor length; both must match the model and
// the descriptors the capture side produces.
func NewEmbedder(modelPath string, inputW, inputH, dim int) (*Embedder, error) {
	inputShape := ort.NewShape(1, 3, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(dim))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input.1"},
		[]string{"683"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create embedder session: %w", err)
	}

	return &Embedder{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputW:       inputW,
		inputH:       inputH,
		dim:          dim,
	}, nil
}

// EmbedImage decodes a JPEG/PNG face crop and returns its L2-normalized
// descriptor. The image is expected to be a reasonably tight, aligned
// face crop; no detection runs here.
func (e *Embedder) EmbedImage(imageData []byte) ([]float32, error) {
	img, err := jpeg.Decode(bytes.NewReader(imageData))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
	}

	input := e.inputTensor.GetData()
	copy(input, preprocess(img, e.inputW, e.inputH))

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("run embedding: %w", err)
	}

	descriptor := make([]float32, e.dim)
	copy(descriptor, e.outputTensor.GetData())
	normalize(descriptor)

	return descriptor, nil
}

// Dim returns the descriptor length this embedder produces.
func (e *Embedder) Dim() int {
	return e.dim
}

func (e *Embedder) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
}

// preprocess converts an image to CHW float32 with (x-127.5)/127.5
// normalization, resizing nearest-neighbour to the model input size.
func preprocess(img image.Image, targetW, targetH int) []float32 {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	data := make([]float32, 3*targetH*targetW)

	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			srcY := bounds.Min.Y + y*srcH/targetH
			r, g, b, _ := img.At(srcX, srcY).RGBA()

			idx := y*targetW + x
			data[0*targetH*targetW+idx] = (float32(r>>8) - 127.5) / 127.5
			data[1*targetH*targetW+idx] = (float32(g>>8) - 127.5) / 127.5
			data[2*targetH*targetW+idx] = (float32(b>>8) - 127.5) / 127.5
		}
	}

	return data
}

// normalize performs L2 normalization in-place.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sum))
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
}

package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/pkg/errors"
)

// LabelCodec maps categorical activity labels to the numeric class codes
// the booster trains on and back. The mapping is the fixed bijection
// code i <-> i-th letter of the alphabet, with codes starting at 1.
type LabelCodec struct {
	Alphabet []string
}

// NewLabelCodec creates the codec for the five activity classes A-E.
func NewLabelCodec() *LabelCodec {
	return &LabelCodec{Alphabet: []string{"A", "B", "C", "D", "E"}}
}

// NumClasses returns the size of the label alphabet.
func (c *LabelCodec) NumClasses() int {
	return len(c.Alphabet)
}

// Encode maps a label character to its 1-based numeric code.
func (c *LabelCodec) Encode(label string) (int, error) {
	for i, l := range c.Alphabet {
		if l == label {
			return i + 1, nil
		}
	}
	return 0, errors.NewValueError("LabelCodec.Encode", "unknown label "+label)
}

// Decode maps a 1-based numeric code back to its label character.
func (c *LabelCodec) Decode(code int) (string, error) {
	if code < 1 || code > len(c.Alphabet) {
		return "", errors.NewValueError("LabelCodec.Decode", "code out of range")
	}
	return c.Alphabet[code-1], nil
}

// EncodeVector maps label characters to a column vector of 0-based class
// indices, the layout the boosting trainer consumes.
func (c *LabelCodec) EncodeVector(labels []string) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "LabelCodec.EncodeVector")
	}
	y := mat.NewDense(len(labels), 1, nil)
	for i, label := range labels {
		code, err := c.Encode(label)
		if err != nil {
			return nil, err
		}
		y.Set(i, 0, float64(code-1))
	}
	return y, nil
}

// DecodeClasses maps 0-based class indices back to label characters,
// preserving order.
func (c *LabelCodec) DecodeClasses(classes []int) ([]string, error) {
	labels := make([]string, len(classes))
	for i, cls := range classes {
		label, err := c.Decode(cls + 1)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

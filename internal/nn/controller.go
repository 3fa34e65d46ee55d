package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Bias is the constant input fed to every neuron's last weight
const Bias = -1.0

// ActivationResponse is the sigmoid steepness divisor
const ActivationResponse = 1.0

// ErrInvalidWeightVector is returned when an injected weight vector has the wrong length
var ErrInvalidWeightVector = errors.New("nn: invalid weight vector")

// Topology describes the fixed shape of a controller
type Topology struct {
	Inputs                int
	Outputs               int
	HiddenLayers          int // <= 0 means inputs feed the output layer directly
	NeuronsPerHiddenLayer int
}

// layerShape is the neuron count and fan-in of one layer
type layerShape struct {
	neurons int
	inputs  int
}

// shapes lists the layers in evaluation order
func (t Topology) shapes() []layerShape {
	if t.HiddenLayers <= 0 {
		return []layerShape{{neurons: t.Outputs, inputs: t.Inputs}}
	}

	shapes := make([]layerShape, 0, t.HiddenLayers+1)
	shapes = append(shapes, layerShape{neurons: t.NeuronsPerHiddenLayer, inputs: t.Inputs})
	for i := 1; i < t.HiddenLayers; i++ {
		shapes = append(shapes, layerShape{neurons: t.NeuronsPerHiddenLayer, inputs: t.NeuronsPerHiddenLayer})
	}
	shapes = append(shapes, layerShape{neurons: t.Outputs, inputs: t.NeuronsPerHiddenLayer})
	return shapes
}

// NumWeights returns the total number of weights (including biases)
func (t Topology) NumWeights() int {
	size := 0
	for _, s := range t.shapes() {
		size += s.neurons * (s.inputs + 1)
	}
	return size
}

// Layer is an ordered set of neurons sharing the same fan-in.
// Each row of Weights holds Inputs+1 values, the bias weight last.
type Layer struct {
	Inputs  int
	Weights [][]float64
}

// Controller is a fixed-topology feedforward network with sigmoid units
type Controller struct {
	topo   Topology
	layers []Layer
}

// New creates a controller with weights drawn uniformly from [-1, 1]
func New(topo Topology, rng *rand.Rand) *Controller {
	c := &Controller{topo: topo}
	for _, s := range topo.shapes() {
		layer := Layer{Inputs: s.inputs, Weights: make([][]float64, s.neurons)}
		for n := range layer.Weights {
			w := make([]float64, s.inputs+1)
			for i := range w {
				w[i] = rng.Float64()*2 - 1
			}
			layer.Weights[n] = w
		}
		c.layers = append(c.layers, layer)
	}
	return c
}

// Topology returns the construction parameters
func (c *Controller) Topology() Topology {
	return c.topo
}

// Layers returns the neuron count of every layer, input side first
func (c *Controller) Layers() []int {
	counts := make([]int, len(c.layers))
	for i, l := range c.layers {
		counts[i] = len(l.Weights)
	}
	return counts
}

// NumberOfWeights returns the length of the flat weight vector
func (c *Controller) NumberOfWeights() int {
	size := 0
	for _, l := range c.layers {
		size += len(l.Weights) * (l.Inputs + 1)
	}
	return size
}

// walk visits every neuron's weights in flattening order together with the
// offset of that neuron's first weight in the flat vector.
func (c *Controller) walk(visit func(neuron []float64, offset int)) {
	offset := 0
	for _, l := range c.layers {
		for _, neuron := range l.Weights {
			visit(neuron, offset)
			offset += len(neuron)
		}
	}
}

// Weights returns a copy of all weights, layer-major then neuron-major
func (c *Controller) Weights() []float64 {
	flat := make([]float64, c.NumberOfWeights())
	c.walk(func(neuron []float64, offset int) {
		copy(flat[offset:], neuron)
	})
	return flat
}

// PutWeights overwrites every weight from a flat vector produced by Weights
func (c *Controller) PutWeights(flat []float64) error {
	if want := c.NumberOfWeights(); len(flat) != want {
		return fmt.Errorf("%w: got %d weights, want %d", ErrInvalidWeightVector, len(flat), want)
	}
	c.walk(func(neuron []float64, offset int) {
		copy(neuron, flat[offset:offset+len(neuron)])
	})
	return nil
}

// Forward evaluates the network. It returns an empty slice when the input
// length does not match the topology; callers must check the length.
func (c *Controller) Forward(inputs []float64) []float64 {
	if len(inputs) != c.topo.Inputs {
		return []float64{}
	}

	in := inputs
	var out []float64
	for _, l := range c.layers {
		out = make([]float64, len(l.Weights))
		for n, w := range l.Weights {
			net := 0.0
			for i := 0; i < l.Inputs; i++ {
				net += w[i] * in[i]
			}
			net += w[l.Inputs] * Bias
			out[n] = Sigmoid(net, ActivationResponse)
		}
		in = out
	}
	return out
}

// Sigmoid is the logistic function with steepness divisor response
func Sigmoid(x, response float64) float64 {
	return 1 / (1 + math.Exp(-x/response))
}

package onnx

import (
	"errors"
	"fmt"
	"os"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// ImportFile reads an ONNX file and builds the equivalent model.
func ImportFile[B tensor.Backend](path string, backend B) (*nn.Model[B], error) {
	//nolint:gosec // G304: the model path comes from the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: read file: %w", err)
	}
	return Import(data, backend)
}

// Import builds a model from ONNX wire bytes.
//
// The graph must be a single chain from one data input to one output;
// branching graphs are rejected. Supported operators: Gemm, Conv,
// MaxPool, AveragePool, Relu, Sigmoid, Tanh, Softmax, Flatten,
// BatchNormalization, and Dropout. Initializers must be float32.
func Import[B tensor.Backend](data []byte, backend B) (*nn.Model[B], error) {
	proto, err := Parse(data)
	if err != nil {
		return nil, err
	}

	graph := proto.Graph
	if graph == nil {
		return nil, errors.New("onnx: model has no graph")
	}
	if len(graph.Outputs) != 1 {
		return nil, fmt.Errorf("onnx: want one graph output, got %d", len(graph.Outputs))
	}

	inits := make(map[string]*TensorProto, len(graph.Initializers))
	for i := range graph.Initializers {
		inits[graph.Initializers[i].Name] = &graph.Initializers[i]
	}

	// The data input is whatever graph input is not an initializer.
	var input *ValueInfoProto
	for i := range graph.Inputs {
		if _, ok := inits[graph.Inputs[i].Name]; ok {
			continue
		}
		if input != nil {
			return nil, fmt.Errorf("onnx: multiple data inputs (%q, %q)",
				input.Name, graph.Inputs[i].Name)
		}
		input = &graph.Inputs[i]
	}
	if input == nil {
		return nil, errors.New("onnx: graph has no data input")
	}

	inputShape, err := shapeOf(input)
	if err != nil {
		return nil, err
	}

	im := &importer[B]{backend: backend, inits: inits}
	current := input.Name
	for _, node := range sortNodes(graph.Nodes) {
		if len(node.Inputs) == 0 || node.Inputs[0] != current {
			return nil, fmt.Errorf("onnx: node %s (%s) does not continue the chain from %q",
				nodeName(node), node.OpType, current)
		}
		if len(node.Outputs) == 0 {
			return nil, fmt.Errorf("onnx: node %s (%s) has no output", nodeName(node), node.OpType)
		}
		layer, err := im.layerFor(node)
		if err != nil {
			return nil, err
		}
		im.layers = append(im.layers, layer)
		current = node.Outputs[0]
	}
	if current != graph.Outputs[0].Name {
		return nil, fmt.Errorf("onnx: chain ends at %q, graph output is %q",
			current, graph.Outputs[0].Name)
	}

	model, err := nn.NewModel(inputShape, im.layers, backend)
	if err != nil {
		return nil, fmt.Errorf("onnx: %w", err)
	}
	return model, nil
}

// importer accumulates layers while walking the node chain.
type importer[B tensor.Backend] struct {
	backend B
	inits   map[string]*TensorProto
	layers  []nn.Layer[B]
}

func (im *importer[B]) layerFor(node *NodeProto) (nn.Layer[B], error) {
	switch node.OpType {
	case "Gemm":
		return im.dense(node)
	case "Conv":
		return im.conv(node)
	case "MaxPool":
		return im.pool(node, false)
	case "AveragePool":
		return im.pool(node, true)
	case "Relu":
		return im.activation(node, nn.ActReLU)
	case "Sigmoid":
		return im.activation(node, nn.ActSigmoid)
	case "Tanh":
		return im.activation(node, nn.ActTanh)
	case "Softmax":
		// Axis -1 and 1 both mean the class dimension on rank-2 input.
		if axis := attrInt(node, "axis", -1); axis != -1 && axis != 1 {
			return nil, fmt.Errorf("onnx: Softmax %s: axis %d unsupported", nodeName(node), axis)
		}
		return im.activation(node, nn.ActSoftmax)
	case "Flatten":
		if axis := attrInt(node, "axis", 1); axis != 1 {
			return nil, fmt.Errorf("onnx: Flatten %s: axis %d unsupported", nodeName(node), axis)
		}
		return nn.NewFlatten[B](), nil
	case "BatchNormalization":
		return im.batchNorm(node)
	case "Dropout":
		return im.dropout(node)
	default:
		return nil, fmt.Errorf("onnx: unsupported operator %q (node %s)", node.OpType, nodeName(node))
	}
}

func (im *importer[B]) activation(node *NodeProto, name string) (nn.Layer[B], error) {
	act, err := nn.NewActivation(name, im.backend)
	if err != nil {
		return nil, fmt.Errorf("onnx: %s %s: %w", node.OpType, nodeName(node), err)
	}
	return act, nil
}

// dense maps Gemm with unit alpha/beta onto a dense layer. ONNX allows
// the weight either way around; transB selects the orientation.
func (im *importer[B]) dense(node *NodeProto) (nn.Layer[B], error) {
	if a := attrFloat(node, "alpha", 1); a != 1 {
		return nil, fmt.Errorf("onnx: Gemm %s: alpha %g unsupported", nodeName(node), a)
	}
	if b := attrFloat(node, "beta", 1); b != 1 {
		return nil, fmt.Errorf("onnx: Gemm %s: beta %g unsupported", nodeName(node), b)
	}
	if attrInt(node, "transA", 0) != 0 {
		return nil, fmt.Errorf("onnx: Gemm %s: transA unsupported", nodeName(node))
	}

	w, err := im.initializer(node, 1, "weight")
	if err != nil {
		return nil, err
	}
	if len(w.Shape()) != 2 {
		return nil, fmt.Errorf("onnx: Gemm %s: weight rank %d, want 2", nodeName(node), len(w.Shape()))
	}
	if attrInt(node, "transB", 0) == 0 {
		if w, err = transpose2D(w); err != nil {
			return nil, fmt.Errorf("onnx: Gemm %s: %w", nodeName(node), err)
		}
	}
	out, in := w.Shape()[0], w.Shape()[1]

	weights := []*tensor.RawTensor{w}
	hasBias := len(node.Inputs) > 2 && node.Inputs[2] != ""
	if hasBias {
		bias, err := im.initializer(node, 2, "bias")
		if err != nil {
			return nil, err
		}
		weights = append(weights, bias)
	}

	dense := nn.NewDense(in, out, hasBias, im.backend)
	if err := dense.SetWeights(weights); err != nil {
		return nil, fmt.Errorf("onnx: Gemm %s: %w", nodeName(node), err)
	}
	return dense, nil
}

// conv maps Conv onto a 2D convolution. The ONNX weight layout
// [out, in, kh, kw] matches the native one, so it loads directly.
func (im *importer[B]) conv(node *NodeProto) (nn.Layer[B], error) {
	if g := attrInt(node, "group", 1); g != 1 {
		return nil, fmt.Errorf("onnx: Conv %s: group %d unsupported", nodeName(node), g)
	}
	for _, d := range attrInts(node, "dilations") {
		if d != 1 {
			return nil, fmt.Errorf("onnx: Conv %s: dilations unsupported", nodeName(node))
		}
	}

	w, err := im.initializer(node, 1, "weight")
	if err != nil {
		return nil, err
	}
	wShape := w.Shape()
	if len(wShape) != 4 {
		return nil, fmt.Errorf("onnx: Conv %s: weight rank %d, want 4", nodeName(node), len(wShape))
	}
	outCh, inCh := wShape[0], wShape[1]
	kernel := [2]int{wShape[2], wShape[3]}
	if ks := attrInts(node, "kernel_shape"); len(ks) == 2 {
		kernel = [2]int{int(ks[0]), int(ks[1])}
	}

	strides := [2]int{1, 1}
	if s := attrInts(node, "strides"); len(s) == 2 {
		strides = [2]int{int(s[0]), int(s[1])}
	}

	mode, err := borderMode(node, kernel)
	if err != nil {
		return nil, err
	}

	weights := []*tensor.RawTensor{w}
	hasBias := len(node.Inputs) > 2 && node.Inputs[2] != ""
	if hasBias {
		bias, err := im.initializer(node, 2, "bias")
		if err != nil {
			return nil, err
		}
		weights = append(weights, bias)
	}

	conv := nn.NewConv2D(inCh, outCh, kernel, strides, mode, hasBias, im.backend)
	if err := conv.SetWeights(weights); err != nil {
		return nil, fmt.Errorf("onnx: Conv %s: %w", nodeName(node), err)
	}
	return conv, nil
}

func (im *importer[B]) pool(node *NodeProto, average bool) (nn.Layer[B], error) {
	ks := attrInts(node, "kernel_shape")
	if len(ks) != 2 {
		return nil, fmt.Errorf("onnx: %s %s: kernel_shape %v, want 2 spatial dims",
			node.OpType, nodeName(node), ks)
	}
	size := [2]int{int(ks[0]), int(ks[1])}

	// ONNX pool strides default to 1, not to the window size.
	strides := [2]int{1, 1}
	if s := attrInts(node, "strides"); len(s) == 2 {
		strides = [2]int{int(s[0]), int(s[1])}
	}
	if pads := attrInts(node, "pads"); !allZero(pads) {
		return nil, fmt.Errorf("onnx: %s %s: padded pooling unsupported", node.OpType, nodeName(node))
	}

	if average {
		return nn.NewAvgPool2D(size, strides, im.backend), nil
	}
	return nn.NewMaxPool2D(size, strides, im.backend), nil
}

func (im *importer[B]) batchNorm(node *NodeProto) (nn.Layer[B], error) {
	if len(node.Inputs) < 5 {
		return nil, fmt.Errorf("onnx: BatchNormalization %s: want inputs [x, scale, bias, mean, var], got %d",
			nodeName(node), len(node.Inputs))
	}
	gamma, err := im.initializer(node, 1, "scale")
	if err != nil {
		return nil, err
	}
	beta, err := im.initializer(node, 2, "bias")
	if err != nil {
		return nil, err
	}
	mean, err := im.initializer(node, 3, "mean")
	if err != nil {
		return nil, err
	}
	variance, err := im.initializer(node, 4, "variance")
	if err != nil {
		return nil, err
	}
	if len(gamma.Shape()) != 1 {
		return nil, fmt.Errorf("onnx: BatchNormalization %s: scale rank %d, want 1",
			nodeName(node), len(gamma.Shape()))
	}

	epsilon := attrFloat(node, "epsilon", 1e-5)
	if epsilon <= 0 {
		return nil, fmt.Errorf("onnx: BatchNormalization %s: epsilon %g must be positive",
			nodeName(node), epsilon)
	}

	bn := nn.NewBatchNorm(gamma.Shape()[0], epsilon, im.backend)
	if err := bn.SetWeights([]*tensor.RawTensor{gamma, beta, mean, variance}); err != nil {
		return nil, fmt.Errorf("onnx: BatchNormalization %s: %w", nodeName(node), err)
	}
	return bn, nil
}

func (im *importer[B]) dropout(node *NodeProto) (nn.Layer[B], error) {
	rate := attrFloat(node, "ratio", 0.5)
	// Opset 12 moved the ratio from an attribute to a second input.
	if len(node.Inputs) > 1 && node.Inputs[1] != "" {
		raw, err := im.initializer(node, 1, "ratio")
		if err != nil {
			return nil, err
		}
		if raw.NumElements() != 1 {
			return nil, fmt.Errorf("onnx: Dropout %s: ratio must be a scalar", nodeName(node))
		}
		rate = raw.AsFloat32()[0]
	}
	if rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("onnx: Dropout %s: ratio %g out of [0, 1)", nodeName(node), rate)
	}
	return nn.NewDropout[B](rate), nil
}

// initializer resolves a node input to a float32 weight tensor.
func (im *importer[B]) initializer(node *NodeProto, idx int, what string) (*tensor.RawTensor, error) {
	if idx >= len(node.Inputs) || node.Inputs[idx] == "" {
		return nil, fmt.Errorf("onnx: %s %s: missing %s input", node.OpType, nodeName(node), what)
	}
	name := node.Inputs[idx]
	proto, ok := im.inits[name]
	if !ok {
		return nil, fmt.Errorf("onnx: %s %s: %s %q is not an initializer",
			node.OpType, nodeName(node), what, name)
	}
	raw, err := tensorFromProto(proto)
	if err != nil {
		return nil, fmt.Errorf("onnx: initializer %q: %w", name, err)
	}
	return raw, nil
}

// tensorFromProto materializes an initializer. Weight data normally
// arrives as raw little-endian bytes; float_data is the legacy field.
func tensorFromProto(proto *TensorProto) (*tensor.RawTensor, error) {
	if proto.DataType != TensorProtoFloat {
		return nil, fmt.Errorf("data type %d unsupported, want float32", proto.DataType)
	}
	shape := make(tensor.Shape, len(proto.Dims))
	for i, dim := range proto.Dims {
		shape[i] = int(dim)
	}
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}

	switch {
	case len(proto.RawData) > 0:
		if len(proto.RawData) != len(raw.Data()) {
			return nil, fmt.Errorf("raw data is %d bytes, shape %v wants %d",
				len(proto.RawData), shape, len(raw.Data()))
		}
		copy(raw.Data(), proto.RawData)
	case len(proto.FloatData) > 0:
		if len(proto.FloatData) != raw.NumElements() {
			return nil, fmt.Errorf("float data has %d values, shape %v wants %d",
				len(proto.FloatData), shape, raw.NumElements())
		}
		copy(raw.AsFloat32(), proto.FloatData)
	}
	return raw, nil
}

// shapeOf converts a value's dimension list, mapping dynamic and
// unknown dimensions to DynamicDim.
func shapeOf(info *ValueInfoProto) (tensor.Shape, error) {
	if info.Type == nil || info.Type.TensorType == nil || info.Type.TensorType.Shape == nil {
		return nil, fmt.Errorf("onnx: input %q has no shape information", info.Name)
	}
	if et := info.Type.TensorType.ElemType; et != TensorProtoUndefined && et != TensorProtoFloat {
		return nil, fmt.Errorf("onnx: input %q: element type %d unsupported, want float32", info.Name, et)
	}
	dims := info.Type.TensorType.Shape.Dims
	shape := make(tensor.Shape, len(dims))
	for i, d := range dims {
		if d.DimValue > 0 {
			shape[i] = int(d.DimValue)
		} else {
			shape[i] = nn.DynamicDim
		}
	}
	return shape, nil
}

func transpose2D(raw *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := raw.Shape()
	rows, cols := shape[0], shape[1]
	out, err := tensor.NewRaw(tensor.Shape{cols, rows}, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}
	src, dst := raw.AsFloat32(), out.AsFloat32()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}
	return out, nil
}

// sortNodes orders nodes so every producer runs before its consumers.
// Exporters normally emit nodes in order already; the sort makes the
// chain walk independent of serialization order.
func sortNodes(nodes []NodeProto) []*NodeProto {
	producer := make(map[string]int)
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			producer[output] = i
		}
	}

	visited := make([]bool, len(nodes))
	result := make([]*NodeProto, 0, len(nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, input := range nodes[i].Inputs {
			if dep, ok := producer[input]; ok {
				visit(dep)
			}
		}
		result = append(result, &nodes[i])
	}

	for i := range nodes {
		visit(i)
	}
	return result
}

func nodeName(node *NodeProto) string {
	if node.Name == "" {
		return "(unnamed)"
	}
	return node.Name
}

func findAttr(node *NodeProto, name string) *AttributeProto {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return &node.Attributes[i]
		}
	}
	return nil
}

func attrInt(node *NodeProto, name string, def int64) int64 {
	if a := findAttr(node, name); a != nil {
		return a.I
	}
	return def
}

func attrFloat(node *NodeProto, name string, def float32) float32 {
	if a := findAttr(node, name); a != nil {
		return a.F
	}
	return def
}

func attrInts(node *NodeProto, name string) []int64 {
	if a := findAttr(node, name); a != nil {
		return a.Ints
	}
	return nil
}

func attrString(node *NodeProto, name, def string) string {
	if a := findAttr(node, name); a != nil {
		return string(a.S)
	}
	return def
}

func allZero(vs []int64) bool {
	for _, v := range vs {
		if v != 0 {
			return false
		}
	}
	return true
}

// borderMode maps ONNX padding onto a border mode. Zero padding is
// valid; symmetric half-kernel padding (or SAME_* auto_pad) is same.
func borderMode(node *NodeProto, kernel [2]int) (string, error) {
	switch autoPad := attrString(node, "auto_pad", "NOTSET"); autoPad {
	case "NOTSET", "":
	case "VALID":
		return nn.BorderValid, nil
	case "SAME_UPPER", "SAME_LOWER":
		if kernel[0]%2 == 0 || kernel[1]%2 == 0 {
			return "", fmt.Errorf("onnx: %s %s: same padding needs odd kernel, got %v",
				node.OpType, nodeName(node), kernel)
		}
		return nn.BorderSame, nil
	default:
		return "", fmt.Errorf("onnx: %s %s: auto_pad %q unsupported", node.OpType, nodeName(node), autoPad)
	}

	pads := attrInts(node, "pads")
	if allZero(pads) {
		return nn.BorderValid, nil
	}
	if len(pads) == 4 &&
		kernel[0]%2 == 1 && kernel[1]%2 == 1 &&
		int(pads[0]) == kernel[0]/2 && int(pads[2]) == kernel[0]/2 &&
		int(pads[1]) == kernel[1]/2 && int(pads[3]) == kernel[1]/2 {
		return nn.BorderSame, nil
	}
	return "", fmt.Errorf("onnx: %s %s: padding %v unsupported", node.OpType, nodeName(node), pads)
}

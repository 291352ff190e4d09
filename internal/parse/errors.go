package parse

import "errors"

// ErrBatchNormPlacement is returned when a batch normalization layer
// does not directly follow a layer whose kind may absorb it. The set of
// absorbing kinds is the extraction config's allow-list; Dense and
// Conv2D by default.
var ErrBatchNormPlacement = errors.New("batch normalization after non-absorbable layer")

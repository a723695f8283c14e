package model

import "errors"

// ErrStructural marks a malformed survey tree or a response that cannot be
// reconciled with the survey. These abort the computation; they are not
// recoverable at this layer.
var ErrStructural = errors.New("structural inconsistency")

// ErrAPIMisuse marks a programming error in how the caller queried a
// response, such as asking for the single answer of a non-exclusive question.
var ErrAPIMisuse = errors.New("api misuse")

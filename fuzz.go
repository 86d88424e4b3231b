// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "bytes"

// Fuzz is a go-fuzz entry point: it returns 1 for inputs the parser
// accepts (to prioritize the corpus toward well-formed-looking inputs) and
// 0 otherwise.
func Fuzz(data []byte) int {
	if _, err := Parse(bytes.NewReader(data)); err != nil {
		return 0
	}
	return 1
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import "errors"

// Sentinel errors for adaptation failures. Check with errors.Is().
var (
	// ErrSourceTooLarge indicates the input exceeds the adapter's size
	// limit.
	ErrSourceTooLarge = errors.New("source exceeds maximum size limit")

	// ErrInvalidSource indicates input that cannot be processed at all
	// (non-UTF-8 content, no parse tree).
	ErrInvalidSource = errors.New("invalid source")
)

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pointer provides the pointer-network answer extractor.
//
// # Overview
//
// A Model reads a question and a context passage and points at the start
// and end of the answer span inside the context. A sentinel position after
// the last context token means "no answer". Two answer layers are
// available:
//   - DPN: four rounds of iterative start/end re-estimation
//   - SPN: start then end, decoded with a beam of ranked spans
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bioqa/backend/cpu"
//	    "github.com/born-ml/bioqa/pointer"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    model, err := pointer.Load("", "model.safetensors", []string{"/cpu:0"}, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    batch := model.NewBatch(questionIDs, contextIDs)
//	    pred, err := model.EncodeWith(pointer.EvalSession(5), batch)
//	    for _, span := range pred.TopSpans[0] {
//	        fmt.Println(span.Start, span.End, span.Prob)
//	    }
//	}
package pointer

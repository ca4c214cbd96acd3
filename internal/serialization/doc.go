// Package serialization saves and loads model weights in the SafeTensors
// format.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes]
//
// Only F32 tensors are supported. The optional "__metadata__" header entry
// carries string metadata; the pointer model stores its JSON config there so
// a weights file is self-describing.
//
// Example usage:
//
//	// Save a model
//	if err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(), meta); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load a model
//	stateDict, meta, err := serialization.ReadSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = model.LoadStateDict(stateDict)
package serialization

// Package serialization implements the SNNW weights container plus a
// SafeTensors reader/writer for interchange with other toolchains.
//
// SNNW is the toolkit's native binary format for model parameters:
//
//	Format Structure:
//	  [64-byte fixed header]
//	    0x00  Magic "SNNW"
//	    0x04  Version (uint32 LE)
//	    0x08  Flags (uint32 LE)
//	    0x10  Header Size (uint64 LE)
//	    0x18  Data Size (uint64 LE)
//	    0x20  SHA-256 checksum of the data section
//	  [Header: JSON tensor table]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
// The format supports:
//   - Multiple data types (float32, float64, int32, int64, uint8, bool)
//   - Arbitrary tensor shapes
//   - Metadata and checkpoint state preservation
//   - Integrity validation via the checksum
//   - Memory-mapped loading (MmapReader)
//
// Example usage:
//
//	// Save parameters
//	writer, err := serialization.NewWeightsWriter("model.h5")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := writer.WriteStateDict(model.StateDict(), "Model", nil); err != nil {
//	    log.Fatal(err)
//	}
//	writer.Close()
//
//	// Load parameters
//	reader, err := serialization.NewWeightsReader("model.h5")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stateDict, err := reader.ReadStateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.LoadStateDict(stateDict)
//	reader.Close()
package serialization

// Package fleece implements a compact, schema-free binary encoding for
// JSON-equivalent values. Encoded values are directly addressable: reading
// a value never requires a parse pass over the whole document, only a
// pointer chase from the trailer to the value in question.
//
// # Basic Usage
//
// Encoding a document:
//
//	enc := fleece.NewEncoder()
//	enc.BeginDictionary(2)
//	enc.WriteKey("name")
//	enc.WriteString("Alice")
//	enc.WriteKey("age")
//	enc.WriteInt(30)
//	enc.EndDictionary()
//	data, err := enc.End()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Reading a document:
//
//	root := fleece.NewValue(data)
//	dict := root.AsDict()
//	name := dict.Get("name").AsString()
//	age := dict.Get("age").AsInt64()
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: encoder.go (NewEncoder, Write*, Begin/End*, End), reader.go (NewValue, Value/Array/Dict)
//   - Configuration: encoder_options.go (EncoderOption, With* functions)
//   - Wire format: value.go (tags, pointers), writer.go (append-only byte sink)
//   - String interning: stringtable.go
//   - Checksums: checksum.go (Encoder.Checksum, Reader.Checksum)
//   - JSON front-end: json.go (EncodeJSON)
//   - Trie index: hamt/ (64-way hash array mapped trie over arbitrary keys)
//   - Platform: fadvise_*.go (mmap read-pattern hints for OpenFile)
package fleece

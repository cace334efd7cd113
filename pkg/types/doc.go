// Package types defines the public data model of classreg: container paths,
// member streams, decoded classes and their constant pools, the generation
// views used for bytecode manipulation, the Registry and Decoder interfaces,
// and the standard error values.
package types

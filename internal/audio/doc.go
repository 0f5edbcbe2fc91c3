// Package audio provides the PCM primitives the episode assembler is built
// from: clips of 16-bit mono samples, silence generation, gain and peak
// normalization, additive mixing, linear resampling, and a WAV codec.
//
// Everything operates on Clip values so stage code never touches raw byte
// buffers or worries about sample alignment.
package audio

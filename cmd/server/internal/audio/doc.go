// Package audio holds the PCM signal model, fixed-window chunking, WAV
// encoding/decoding and the FFmpeg-backed decoder that turns arbitrary
// uploads into mono PCM at the pipeline sample rate.
package audio

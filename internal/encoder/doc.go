// Package encoder defines the chunk encoder backend contract and its ffmpeg
// implementation.
//
// A Backend turns an ordered list of frame image files into one compressed
// chunk artifact with a fixed per-frame display duration. The ffmpeg
// implementation drives the concat demuxer through a subprocess; callers that
// need different codecs or an out-of-process encoding service implement
// Backend themselves.
package encoder

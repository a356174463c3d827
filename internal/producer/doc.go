// Package producer supplies cropped frames at the configured output rate.
//
// A Producer hands the pipeline driver one frame at a time in strictly
// increasing index order starting at 0 and reports exhaustion with
// ErrEndOfStream. The FFmpeg implementation spawns an ffmpeg process that
// writes a numbered image sequence into a working directory and streams the
// files back as they appear, so extraction overlaps with inference and
// encoding instead of running as a separate pass.
package producer

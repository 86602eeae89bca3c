package video

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFmpegTranscoder re-encodes a window of a video with the configured H.264
// encoder. Audio is re-encoded to AAC so the cut lands on the exact frame.
type FFmpegTranscoder struct {
	Binary  string // defaults to "ffmpeg"
	Encoder string
	Quality int
}

func NewFFmpegTranscoder(encoder string, quality int) *FFmpegTranscoder {
	return &FFmpegTranscoder{Binary: "ffmpeg", Encoder: encoder, Quality: quality}
}

func (e *FFmpegTranscoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e *FFmpegTranscoder) Transcode(ctx context.Context, input, output string, start, end time.Duration, progress func(float64)) error {
	if end <= start {
		return fmt.Errorf("empty window %v..%v", start, end)
	}
	args := BuildTrimArgs(input, output, start, end, e.Encoder, e.Quality)
	cmd := exec.CommandContext(ctx, e.binary(), args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe error: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	scanErr := ReadProgress(stdout, end-start, progress)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg trim error: %w, output: %s", err, tail(stderr.String(), 512))
	}
	return scanErr
}

// BuildTrimArgs seeks before the input for a fast cut and reports progress
// as key=value blocks on stdout.
func BuildTrimArgs(input, output string, start, end time.Duration, encoder string, quality int) []string {
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-nostats",
		"-ss", seconds(start),
		"-i", input,
		"-t", seconds(end - start),
		"-map", "0:v:0",
		"-map", "0:a?",
		"-c:v", encoder,
		"-pix_fmt", "yuv420p",
	}
	args = append(args, QualityArgs(encoder, quality)...)
	args = append(args,
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		output,
	)
	return args
}

// QualityArgs maps a quality value onto the encoder's own rate control.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		bitrate := quality * 100 // 75 -> 7.5 Mbit/s
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

// ReadProgress consumes ffmpeg -progress output and reports the fraction of
// total encoded so far. It returns when r is exhausted.
func ReadProgress(r io.Reader, total time.Duration, progress func(float64)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms": // both are microseconds
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 || total <= 0 || progress == nil {
				continue
			}
			progress(min(float64(us)/float64(total.Microseconds()), 1))
		case "progress":
			if value == "end" && progress != nil {
				progress(1)
			}
		}
	}
	return sc.Err()
}

// FFmpegFrameExtractor decodes the first video frame to PNG over a pipe.
type FFmpegFrameExtractor struct {
	Binary string
}

func (x *FFmpegFrameExtractor) FirstFrame(ctx context.Context, path string) (image.Image, error) {
	bin := x.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, BuildFrameArgs(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame error: %w, output: %s", err, tail(stderr.String(), 512))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", path)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func BuildFrameArgs(path string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

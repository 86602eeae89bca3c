package system

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var ErrInsufficientMemory = errors.New("not enough free memory")

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise open file limit: %v", err)
	}
}

// RGBAFootprint is the number of bytes a w x h RGBA canvas occupies.
func RGBAFootprint(w, h int) uint64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return uint64(w) * uint64(h) * 4
}

// availableMemory is swapped in tests.
var availableMemory = func(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// EnsureMemory fails when fewer than need bytes are available. If the host
// does not report memory statistics the check passes.
func EnsureMemory(ctx context.Context, need uint64) error {
	avail, err := availableMemory(ctx)
	if err != nil {
		log.Printf("[!] Memory statistics unavailable: %v", err)
		return nil
	}
	if need > avail {
		return fmt.Errorf("%w: need %d MiB, have %d MiB", ErrInsufficientMemory, need>>20, avail>>20)
	}
	return nil
}

// HostSummary is a one-line description used in the stats report.
func HostSummary(ctx context.Context) string {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cores = 0
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Sprintf("cpus=%d", cores)
	}
	return fmt.Sprintf("cpus=%d mem=%dMiB free=%dMiB", cores, vm.Total>>20, vm.Available>>20)
}

// ProbeDuration returns the container duration of a media file in milliseconds.
func ProbeDuration(ctx context.Context, path string) (int64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return ParseProbeDuration(string(out))
}

func ParseProbeDuration(out string) (int64, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", out, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %f", seconds)
	}
	return int64(seconds*1000 + 0.5), nil
}

func GetBestH264Encoder() string {
	// Priority:
	// 1. macOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(encoders string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return "libx264"
}

package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

type probeInfo struct {
	BitrateKbps int
	Height      int
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Height    int    `json:"height"`
		BitRate   string `json:"bit_rate"`
	} `json:"streams"`
	Format struct {
		BitRate string `json:"bit_rate"`
	} `json:"format"`
}

// probe runs ffprobe against a local file and extracts the overall bitrate
// and the video height, where present.
func (r *Runner) probe(ctx context.Context, path string) (*probeInfo, error) {
	cmd := exec.CommandContext(ctx, r.cfg.FFprobeBin,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("could not parse ffprobe output: %w", err)
	}

	info := &probeInfo{BitrateKbps: parseBitrateKbps(out.Format.BitRate)}
	for _, s := range out.Streams {
		if s.CodecType == "video" && s.Height > info.Height {
			info.Height = s.Height
		}
		if info.BitrateKbps == 0 && s.CodecType == "audio" {
			info.BitrateKbps = parseBitrateKbps(s.BitRate)
		}
	}
	return info, nil
}

// parseBitrateKbps converts ffprobe's bits-per-second string to kbps.
func parseBitrateKbps(s string) int {
	bps, err := strconv.Atoi(s)
	if err != nil || bps <= 0 {
		return 0
	}
	return bps / 1000
}

// reencodeAudio re-encodes an audio file at the target bitrate with ffmpeg
// and replaces the original on success.
func (r *Runner) reencodeAudio(ctx context.Context, path string, targetKbps int) (string, error) {
	tmp := path + ".reencode.mp3"
	cmd := exec.CommandContext(ctx, r.cfg.FFmpegBin,
		"-y",
		"-i", path,
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", targetKbps),
		tmp,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("ffmpeg re-encode failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("could not replace original file: %w", err)
	}
	return path, nil
}

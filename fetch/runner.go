package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"mediadl/config"
	"mediadl/logger"
	"mediadl/task"
)

// Runner invokes the yt-dlp binary to resolve and download media, then
// verifies the produced file with ffprobe and re-encodes with ffmpeg when the
// source falls short of the requested audio tier. It implements task.Fetcher.
type Runner struct {
	cfg       *config.Config
	extraArgs []string
}

func NewRunner(cfg *config.Config) (*Runner, error) {
	for _, bin := range []string{cfg.YTDLPBin, cfg.FFmpegBin, cfg.FFprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("binary not found or not in PATH: %s", bin)
		}
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create download directory: %w", err)
	}

	extraArgs, err := SplitExtraArgs(cfg.YTDLPExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid YTDLP_EXTRA_ARGS: %w", err)
	}

	logger.Info("fetch runner initialized",
		zap.String("download_dir", cfg.DownloadDir),
		zap.String("ytdlp_bin", cfg.YTDLPBin),
	)
	return &Runner{cfg: cfg, extraArgs: extraArgs}, nil
}

// Fetch downloads the task's URL into the shared download directory. Output
// files are namespaced by task ID, and discovery goes strictly by that prefix
// so concurrent tasks can never pick up each other's artifacts.
func (r *Runner) Fetch(ctx context.Context, t task.Task) (*task.Result, error) {
	if err := r.checkResources(); err != nil {
		return nil, fmt.Errorf("insufficient system resources: %w", err)
	}

	args := r.buildArgs(t)
	cmd := exec.CommandContext(ctx, r.cfg.YTDLPBin, args...)
	var outputBuf bytes.Buffer
	cmd.Stdout = &outputBuf
	cmd.Stderr = &outputBuf

	logger.Info("executing fetch",
		zap.String("task_id", t.ID),
		zap.String("media_type", string(t.MediaType)),
		zap.String("quality", t.Quality),
	)

	if err := cmd.Run(); err != nil {
		removeTaskFiles(r.cfg.DownloadDir, t.ID)
		return nil, classify(outputBuf.String(), t.Quality, err)
	}

	wantExt := ".mp4"
	if t.MediaType == task.MediaAudio {
		wantExt = ".mp3"
	}
	path, err := locateOutput(r.cfg.DownloadDir, t.ID, wantExt)
	if err != nil {
		// The tool reported success but left nothing behind.
		return nil, &Error{Kind: KindOutputMissing, Quality: t.Quality, cause: err}
	}

	result := &task.Result{
		FilePath:  path,
		Filename:  filepath.Base(path),
		Quality:   t.Quality,
		MediaType: t.MediaType,
	}

	r.verifyQuality(ctx, t, result)

	info, err := os.Stat(result.FilePath)
	if err != nil {
		return nil, &Error{Kind: KindOutputMissing, Quality: t.Quality, cause: err}
	}
	result.Size = info.Size()

	return result, nil
}

func (r *Runner) buildArgs(t task.Task) []string {
	outTemplate := filepath.Join(r.cfg.DownloadDir, t.ID+".%(ext)s")
	if t.MediaType == task.MediaVideo {
		outTemplate = filepath.Join(r.cfg.DownloadDir, t.ID+"_%(height)sp.%(ext)s")
	}

	args := []string{
		"--no-playlist",
		"--no-progress",
		"--newline",
		"--continue",
		"--socket-timeout", strconv.Itoa(int(r.cfg.SocketTimeout.Seconds())),
		"--retries", strconv.Itoa(r.cfg.FetchRetries),
		"--fragment-retries", strconv.Itoa(fragmentRetries),
		"--concurrent-fragments", strconv.Itoa(r.cfg.ConcurrentFragments),
		"--user-agent", browserUserAgent,
		"-o", outTemplate,
		"-f", FormatSelector(t.MediaType, t.Quality),
	}

	if t.MediaType == task.MediaVideo {
		args = append(args, "--recode-video", "mp4")
	} else {
		args = append(args,
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", strconv.Itoa(TargetBitrate(t.Quality)),
		)
	}

	args = append(args, r.extraArgs...)
	args = append(args, t.URL)
	return args
}

// verifyQuality probes the artifact and, for audio below the tier target,
// re-encodes at the target bitrate. Probe failures are logged and skipped;
// the downloaded file is still good.
func (r *Runner) verifyQuality(ctx context.Context, t task.Task, result *task.Result) {
	info, err := r.probe(ctx, result.FilePath)
	if err != nil {
		logger.Warn("probe failed", zap.String("task_id", t.ID), zap.Error(err))
		return
	}

	if t.MediaType == task.MediaVideo {
		result.Height = info.Height
		if info.Height > TargetHeight(t.Quality) {
			logger.Warn("produced height exceeds requested tier",
				zap.String("task_id", t.ID),
				zap.Int("height", info.Height),
				zap.String("quality", t.Quality),
			)
		}
		return
	}

	result.Bitrate = info.BitrateKbps
	target := TargetBitrate(t.Quality)
	if info.BitrateKbps == 0 || info.BitrateKbps >= target*85/100 {
		return
	}

	logger.Info("re-encoding audio to tier target",
		zap.String("task_id", t.ID),
		zap.Int("measured_kbps", info.BitrateKbps),
		zap.Int("target_kbps", target),
	)
	reencoded, err := r.reencodeAudio(ctx, result.FilePath, target)
	if err != nil {
		logger.Warn("re-encode failed, keeping original",
			zap.String("task_id", t.ID), zap.Error(err))
		return
	}
	result.FilePath = reencoded
	result.Filename = filepath.Base(reencoded)
	if again, err := r.probe(ctx, reencoded); err == nil {
		result.Bitrate = again.BitrateKbps
	}
}

// locateOutput finds the produced file for a task by its ID prefix. Partial
// download leftovers are ignored; if several candidates remain, an exact
// extension match wins, then the largest file.
func locateOutput(dir, taskID, wantExt string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not read download directory: %w", err)
	}

	var best string
	var bestSize int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, taskID) {
			continue
		}
		ext := filepath.Ext(name)
		if ext == ".part" || ext == ".ytdl" || ext == ".temp" {
			continue
		}
		if ext == wantExt {
			return filepath.Join(dir, name), nil
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.Size() > bestSize {
			best = name
			bestSize = info.Size()
		}
	}

	if best == "" {
		return "", fmt.Errorf("no output file with prefix %s in %s", taskID, dir)
	}
	return filepath.Join(dir, best), nil
}

// removeTaskFiles clears partial artifacts of a failed fetch.
func removeTaskFiles(dir, taskID string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), taskID) {
			os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}

// checkResources verifies that the host has enough headroom to start another
// download/transcode.
func (r *Runner) checkResources() error {
	p, err := cpu.Percent(time.Second, false)
	if err != nil {
		logger.Warn("could not get CPU usage", zap.Error(err))
	} else if len(p) > 0 && p[0] > (100.0-r.cfg.ThrottleCPU) {
		return fmt.Errorf("not enough idle CPU. Current usage: %.2f%%, Idle threshold: %.2f%%", p[0], r.cfg.ThrottleCPU)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.Warn("could not get memory usage", zap.Error(err))
	} else if vm.Available < uint64(r.cfg.ThrottleFreeMem) {
		return fmt.Errorf("not enough free memory. Available: %d, Required: %d", vm.Available, r.cfg.ThrottleFreeMem)
	}

	d, err := disk.Usage(r.cfg.DownloadDir)
	if err != nil {
		logger.Warn("could not get disk usage", zap.String("dir", r.cfg.DownloadDir), zap.Error(err))
	} else if d.Free < uint64(r.cfg.ThrottleFreeDisk) {
		return fmt.Errorf("not enough free disk space. Available: %d, Required: %d", d.Free, r.cfg.ThrottleFreeDisk)
	}
	return nil
}

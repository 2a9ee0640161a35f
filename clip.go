package clutmap

import "fmt"

// VideoInfo describes every frame of a clip.
type VideoInfo struct {
	Format    Format
	Width     int
	Height    int
	NumFrames int
}

// Clip is a random-access frame sequence. Frames returned by Frame are
// owned by the clip and must be treated as read-only. Implementations
// in this package are safe for concurrent use.
type Clip interface {
	Info() VideoInfo
	Frame(n int) (*Frame, error)
}

func checkFrameIndex(info VideoInfo, n int) error {
	if n < 0 || n >= info.NumFrames {
		return fmt.Errorf("clutmap: frame %d not in [0,%d): %w", n, info.NumFrames, ErrFrameOutOfRange)
	}
	return nil
}

// FrameClip serves a fixed list of frames.
type FrameClip struct {
	info   VideoInfo
	frames []*Frame
}

// NewFrameClip wraps frames, which must share format and size.
func NewFrameClip(frames ...*Frame) (*FrameClip, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("clutmap: clip needs at least one frame: %w", ErrFrameOutOfRange)
	}
	for i, f := range frames {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("clutmap: frame %d: %w", i, err)
		}
	}
	first := frames[0]
	for i, f := range frames[1:] {
		if f.Format != first.Format {
			return nil, fmt.Errorf("clutmap: frame %d is %s, frame 0 is %s: %w",
				i+1, f.Format, first.Format, ErrFormatMismatch)
		}
		if f.Width != first.Width || f.Height != first.Height {
			return nil, fmt.Errorf("clutmap: frame %d is %dx%d, frame 0 is %dx%d: %w",
				i+1, f.Width, f.Height, first.Width, first.Height, ErrInvalidDimensions)
		}
	}
	return &FrameClip{
		info: VideoInfo{
			Format:    first.Format,
			Width:     first.Width,
			Height:    first.Height,
			NumFrames: len(frames),
		},
		frames: frames,
	}, nil
}

// NewStillClip repeats one frame numFrames times.
func NewStillClip(frame *Frame, numFrames int) *FrameClip {
	numFrames = max(numFrames, 1)
	frames := make([]*Frame, numFrames)
	for i := range frames {
		frames[i] = frame
	}
	return &FrameClip{
		info: VideoInfo{
			Format:    frame.Format,
			Width:     frame.Width,
			Height:    frame.Height,
			NumFrames: numFrames,
		},
		frames: frames,
	}
}

func (c *FrameClip) Info() VideoInfo {
	return c.info
}

func (c *FrameClip) Frame(n int) (*Frame, error) {
	if err := checkFrameIndex(c.info, n); err != nil {
		return nil, err
	}
	return c.frames[n], nil
}

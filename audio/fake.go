package audio

import (
	"sync"
	"time"
)

const fakeFrameSize = 1024

// FakeContext replays a WAV file as if it were a live microphone,
// feeding silence once the audio runs out. Used by the -fakewav flag
// and in tests.
type FakeContext struct {
	pcm      []int16
	realtime bool
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	samples, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{pcm: samples, realtime: realtime}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig, callback DataCallback) (CaptureDevice, error) {
	return &FakeCapture{
		pcm:       f.pcm,
		realtime:  f.realtime,
		cb:        callback,
		audioDone: make(chan struct{}),
	}, nil
}

type FakeCapture struct {
	pcm       []int16
	realtime  bool
	cb        DataCallback
	audioDone chan struct{}

	mu       sync.Mutex
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone closes once the replayed audio is exhausted; only silence
// follows after that.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) feedChunk(pos int) int {
	end := pos + fakeFrameSize
	if end > len(f.pcm) {
		end = len(f.pcm)
	}
	chunk := make([]byte, (end-pos)*2)
	for i, s := range f.pcm[pos:end] {
		chunk[2*i] = byte(s)
		chunk[2*i+1] = byte(uint16(s) >> 8)
	}
	f.cb(chunk, uint32(end-pos))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeFrameSize) * time.Second / time.Duration(SampleRate)
	}

	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, fakeFrameSize*2)
		finished := false
		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			if pos < len(f.pcm) {
				pos = f.feedChunk(pos)
			} else {
				if !finished {
					finished = true
					close(f.audioDone)
				}
				f.cb(silence, fakeFrameSize)
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
	f.audioDone = make(chan struct{}) // reset for replay
}

func (f *FakeCapture) Close() {}

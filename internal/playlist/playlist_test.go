package playlist

import (
	"sync"
	"testing"

	"github.com/pefti/pefti/internal/channel"
)

func TestAppendConcurrentSafe(t *testing.T) {
	pl := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pl.Append(channel.New("channel"))
		}(i)
	}
	wg.Wait()
	if len(pl.Channels()) != 50 {
		t.Errorf("expected 50 channels, got %d", len(pl.Channels()))
	}
}

func TestHasTvgIDLazy(t *testing.T) {
	pl := New()
	a := channel.New("BBC One")
	a.SetTag(channel.TagTvgID, "bbc1.uk")
	pl.Append(a)
	pl.Append(channel.New("CNN"))

	if !pl.HasTvgID("bbc1.uk") {
		t.Errorf("expected bbc1.uk to be known")
	}
	if pl.HasTvgID("cnn.us") {
		t.Errorf("did not expect cnn.us to be known")
	}
}

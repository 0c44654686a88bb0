package slots

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
	"github.com/provide-io/emotepack/pkg/logging"
)

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.NewTestLogger("slots_test")
	}
	return NewRegistry(opts)
}

func pngBlob(t *testing.T, name string, w, h int) Blob {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Blob{Name: name, MediaType: "image/png", Data: buf.Bytes()}
}

func waitBound(t *testing.T, p *Pending) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func TestNewRegistryHasDefaults(t *testing.T) {
	r := newTestRegistry(t, Options{})
	require.Equal(t, DefaultEmotions, r.Names())
	require.Equal(t, 11, r.Len())
	require.Empty(t, r.Bound())
}

func TestAppendKeepsOrder(t *testing.T) {
	r := newTestRegistry(t, Options{})
	require.NoError(t, r.ReplaceFromText("base"))

	added := []string{"wink", "pout", "sleepy", "proud"}
	for _, name := range added {
		ok, err := r.Append(name)
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.Equal(t, append([]string{"base"}, added...), r.Names())
}

func TestAppendDuplicateRejected(t *testing.T) {
	r := newTestRegistry(t, Options{})
	before := r.Names()

	ok, err := r.Append("  angry ")
	require.False(t, ok)
	require.True(t, errors.Is(err, emoteerrors.ErrDuplicateSlot))
	require.Contains(t, err.Error(), `"angry"`)
	require.Equal(t, before, r.Names())
}

func TestAppendBlankIgnored(t *testing.T) {
	r := newTestRegistry(t, Options{})
	for _, input := range []string{"", "   ", "\t\n"} {
		ok, err := r.Append(input)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Equal(t, DefaultEmotions, r.Names())
}

func TestAppendLowerCase(t *testing.T) {
	r := newTestRegistry(t, Options{LowerCaseNames: true})

	ok, err := r.Append("Wink")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "wink", r.Names()[r.Len()-1])

	_, err = r.Append("ANGRY")
	require.True(t, errors.Is(err, emoteerrors.ErrDuplicateSlot))
}

func TestAppendCaseSensitiveByDefault(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ok, err := r.Append("Angry")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReplaceFromText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		warning bool
	}{
		{name: "blank lines dropped", input: "a\n\nb\n \nc", want: []string{"a", "b", "c"}},
		{name: "crlf", input: "smile\r\nangry\r\n", want: []string{"smile", "angry"}},
		{name: "trimmed", input: "  wink  \n\tpout", want: []string{"wink", "pout"}},
		{name: "duplicates kept", input: "a\nb\na", want: []string{"a", "b", "a"}},
		{name: "only blank lines", input: "\n  \n\t\n", want: DefaultEmotions, warning: true},
		{name: "empty", input: "", want: DefaultEmotions, warning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t, Options{})
			err := r.ReplaceFromText(tt.input)
			if tt.warning {
				require.True(t, errors.Is(err, emoteerrors.ErrEmptySlotList))
				require.True(t, emoteerrors.IsWarning(err))
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, r.Names())
		})
	}
}

func TestReplacePolicies(t *testing.T) {
	for _, policy := range []ReplacePolicy{PreserveBindings, ClearBindings} {
		t.Run(string(policy), func(t *testing.T) {
			r := newTestRegistry(t, Options{ReplacePolicy: policy})
			p, err := r.Bind(context.Background(), "smile", pngBlob(t, "smile.png", 4, 4))
			require.NoError(t, err)
			waitBound(t, p)

			require.NoError(t, r.ReplaceFromText("smile\nwink"))
			_, ok := r.Binding("smile")
			require.Equal(t, policy == PreserveBindings, ok)
			require.Equal(t, policy == PreserveBindings, len(r.Bound()) == 1)
		})
	}
}

func TestPreservedBindingHiddenUntilNameReturns(t *testing.T) {
	r := newTestRegistry(t, Options{})
	p, err := r.Bind(context.Background(), "blush", pngBlob(t, "blush.png", 4, 4))
	require.NoError(t, err)
	waitBound(t, p)

	require.NoError(t, r.ReplaceFromText("wink"))
	require.Empty(t, r.Bound())

	require.NoError(t, r.ReplaceFromText("wink\nblush"))
	bound := r.Bound()
	require.Len(t, bound, 1)
	require.Equal(t, "blush", bound[0].Slot)
}

func TestResetRestoresDefaults(t *testing.T) {
	r := newTestRegistry(t, Options{})
	require.NoError(t, r.ReplaceFromText("x\ny"))
	_, err := r.Append("z")
	require.NoError(t, err)
	p, err := r.Bind(context.Background(), "x", pngBlob(t, "x.png", 2, 2))
	require.NoError(t, err)
	waitBound(t, p)

	r.Reset()

	require.Equal(t, DefaultEmotions, r.Names())
	require.Empty(t, r.Bound())
	_, ok := r.Binding("x")
	require.False(t, ok)
}

func TestBindReplacesEarlierBinding(t *testing.T) {
	r := newTestRegistry(t, Options{})
	first := pngBlob(t, "first.png", 3, 3)
	second := pngBlob(t, "second.png", 5, 5)

	p1, err := r.Bind(context.Background(), "sad", first)
	require.NoError(t, err)
	waitBound(t, p1)
	p2, err := r.Bind(context.Background(), "sad", second)
	require.NoError(t, err)
	waitBound(t, p2)

	bound := r.Bound()
	require.Len(t, bound, 1)
	require.Equal(t, "second.png", bound[0].Blob.Name)
	require.Equal(t, second.Data, bound[0].Blob.Data)
	require.NotNil(t, bound[0].Preview)
	require.Equal(t, 5, bound[0].Preview.Width)
}

func TestBindIgnoresNonImage(t *testing.T) {
	r := newTestRegistry(t, Options{})
	var events []Event
	r.Subscribe(func(ev Event) { events = append(events, ev) })

	p, err := r.Bind(context.Background(), "smile", Blob{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hi")})
	require.NoError(t, err)
	require.True(t, p.Ignored())
	require.NoError(t, p.Wait(context.Background()))

	_, ok := r.Binding("smile")
	require.False(t, ok)
	require.Empty(t, events)
}

func TestBindUnknownSlotSuggests(t *testing.T) {
	r := newTestRegistry(t, Options{})
	_, err := r.Bind(context.Background(), "smlie", pngBlob(t, "s.png", 2, 2))
	require.True(t, errors.Is(err, emoteerrors.ErrUnknownSlot))
	require.Contains(t, err.Error(), `did you mean "smile"`)

	_, err = r.Bind(context.Background(), "zzzzzzzzzz", pngBlob(t, "s.png", 2, 2))
	require.True(t, errors.Is(err, emoteerrors.ErrUnknownSlot))
	require.NotContains(t, err.Error(), "did you mean")
}

func TestBindUndecodableImageStillBound(t *testing.T) {
	r := newTestRegistry(t, Options{})
	blob := Blob{Name: "fake.png", MediaType: "image/png", Data: []byte("definitely not a png")}

	p, err := r.Bind(context.Background(), "bored", blob)
	require.NoError(t, err)
	waitBound(t, p)

	b, ok := r.Binding("bored")
	require.True(t, ok)
	require.NotNil(t, b.Preview)
	require.Empty(t, b.Preview.Format)
	require.Equal(t, EncodeDataURL("image/png", blob.Data), b.Preview.DataURL)
}

// gatedDecoder blocks decodes of blobs listed in gates until the gate closes.
type gatedDecoder struct {
	gates map[string]chan struct{}
}

func (g *gatedDecoder) Decode(ctx context.Context, blob Blob) (*Preview, error) {
	if gate, ok := g.gates[blob.Name]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &Preview{DataURL: EncodeDataURL(blob.MediaType, blob.Data), Checksum: blob.Name}, nil
}

func TestLastBindWins(t *testing.T) {
	gate := make(chan struct{})
	r := newTestRegistry(t, Options{Decoder: &gatedDecoder{gates: map[string]chan struct{}{"slow": gate}}})

	slow, err := r.Bind(context.Background(), "scared", Blob{Name: "slow", MediaType: "image/png", Data: []byte("1")})
	require.NoError(t, err)
	fast, err := r.Bind(context.Background(), "scared", Blob{Name: "fast", MediaType: "image/png", Data: []byte("2")})
	require.NoError(t, err)

	waitBound(t, fast)
	close(gate)
	waitBound(t, slow)

	require.True(t, slow.Superseded())
	require.False(t, fast.Superseded())

	b, ok := r.Binding("scared")
	require.True(t, ok)
	require.Equal(t, "fast", b.Blob.Name)
	require.Equal(t, "fast", b.Preview.Checksum)
}

func TestDecodeAfterResetIsDropped(t *testing.T) {
	gate := make(chan struct{})
	r := newTestRegistry(t, Options{Decoder: &gatedDecoder{gates: map[string]chan struct{}{"slow": gate}}})

	p, err := r.Bind(context.Background(), "smile", Blob{Name: "slow", MediaType: "image/png", Data: []byte("1")})
	require.NoError(t, err)
	r.Reset()
	close(gate)
	waitBound(t, p)

	require.True(t, p.Superseded())
	require.Empty(t, r.Bound())
}

func TestEvents(t *testing.T) {
	r := newTestRegistry(t, Options{})

	var mu sync.Mutex
	var events []Event
	unsubscribe := r.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	_, err := r.Append("wink")
	require.NoError(t, err)
	p, err := r.Bind(context.Background(), "wink", pngBlob(t, "w.png", 2, 2))
	require.NoError(t, err)
	waitBound(t, p)
	require.NoError(t, r.ReplaceFromText("a\nb"))
	r.Reset()

	unsubscribe()
	_, err = r.Append("after")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)

	require.Equal(t, EventAppended, events[0].Kind)
	require.Equal(t, "wink", events[0].Slot)
	require.Equal(t, 11, events[0].Index)

	require.Equal(t, EventBound, events[1].Kind)
	require.Equal(t, "wink", events[1].Slot)
	require.Equal(t, 11, events[1].Index)

	require.Equal(t, EventReplaced, events[2].Kind)
	require.Equal(t, []string{"a", "b"}, events[2].Names)

	require.Equal(t, EventReset, events[3].Kind)
	require.Equal(t, DefaultEmotions, events[3].Names)
}

func TestBoundFollowsDisplayOrder(t *testing.T) {
	r := newTestRegistry(t, Options{})
	require.NoError(t, r.ReplaceFromText("c\na\nb\na"))

	for _, slot := range []string{"b", "a", "c"} {
		p, err := r.Bind(context.Background(), slot, pngBlob(t, slot+".png", 2, 2))
		require.NoError(t, err)
		waitBound(t, p)
	}

	var got []string
	for _, b := range r.Bound() {
		got = append(got, b.Slot)
	}
	require.Equal(t, []string{"c", "a", "b"}, got)
}

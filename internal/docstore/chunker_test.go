package docstore

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func Test_Split(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		cfg     ChunkConfig
		want    int
		wantErr bool
	}{
		{
			name: "short text yields single chunk",
			text: "housing subsidy for rural families",
			cfg:  ChunkConfig{Size: 500, Overlap: 50},
			want: 1,
		},
		{
			name: "empty text yields no chunks",
			text: "   \n\t  ",
			cfg:  ChunkConfig{Size: 500, Overlap: 50},
			want: 0,
		},
		{
			name: "long text splits with overlap",
			text: strings.Repeat("a", 1000),
			cfg:  ChunkConfig{Size: 500, Overlap: 50},
			// steps of 450: [0,500) [450,950) [900,1000)
			want: 3,
		},
		{
			name:    "overlap >= size rejected",
			text:    "anything",
			cfg:     ChunkConfig{Size: 100, Overlap: 100},
			wantErr: true,
		},
		{
			name:    "zero size rejected",
			text:    "anything",
			cfg:     ChunkConfig{Size: 0, Overlap: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chunks, err := Split(tt.text, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Split() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(chunks) != tt.want {
				t.Errorf("len(chunks) = %d, want %d", len(chunks), tt.want)
			}
		})
	}
}

func Test_Split_OverlapSharesText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 90) + strings.Repeat("y", 90)
	chunks, err := Split(text, ChunkConfig{Size: 100, Overlap: 20})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	// Second chunk starts at rune 80, inside the first chunk's tail.
	if !strings.HasPrefix(chunks[1], "xxxxxxxxxx") {
		t.Errorf("second chunk does not begin with overlapped text: %q", chunks[1][:20])
	}
}

func Test_Split_MultiByteRunes(t *testing.T) {
	t.Parallel()

	// Devanagari text must split on rune boundaries.
	text := strings.Repeat("योजना ", 100)
	chunks, err := Split(text, ChunkConfig{Size: 50, Overlap: 10})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Split() returned no chunks")
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
}

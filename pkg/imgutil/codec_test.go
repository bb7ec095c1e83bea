package imgutil

import (
	"bytes"
	"strings"
	"testing"
)

func TestBase64RoundTrip(t *testing.T) {
	t.Run("任意のバイナリが往復でバイト単位に一致するのだ", func(t *testing.T) {
		payloads := [][]byte{
			[]byte{},
			[]byte{0x00},
			[]byte{0xff, 0x00, 0xff},
			[]byte("\x89PNG\r\n\x1a\n arbitrary binary \x00\x01\x02"),
			bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 1024),
		}

		for _, b := range payloads {
			got, err := Base64ToBlob(BlobToBase64(b))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, b) {
				t.Errorf("round trip mismatch: len(in)=%d len(out)=%d", len(b), len(got))
			}
		}
	})

	t.Run("壊れた base64 はエラーになるのだ", func(t *testing.T) {
		if _, err := Base64ToBlob("%%%not-base64%%%"); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestDataURL(t *testing.T) {
	url := DataURL("image/png", []byte{0x01, 0x02})
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %s", url)
	}
	encoded := strings.TrimPrefix(url, "data:image/png;base64,")
	decoded, err := Base64ToBlob(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(decoded, []byte{0x01, 0x02}) {
		t.Error("payload mismatch after data URL round trip")
	}
}

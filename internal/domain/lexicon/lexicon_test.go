package lexicon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/sentinel/internal/domain/lexicon"
	. "github.com/smartystreets/goconvey/convey"
)

func writeLexicon(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	Convey("Given the default lexicon", t, func() {
		lx := lexicon.Default()

		Convey("Then it should be valid and carry every list", func() {
			So(lx.Validate(), ShouldBeNil)
			So(lx.Bullish, ShouldContain, "bullish")
			So(lx.Bearish, ShouldContain, "bearish")
			So(lx.Negations, ShouldContain, "not")
			So(lx.BullishEmoji, ShouldContain, "🚀")
			So(lx.BearishEmoji, ShouldContain, "📉")
			So(lx.HighConvictionBearish, ShouldContain, "capitulation")
			So(lx.HighConvictionBullish, ShouldContain, "strong buy")
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a YAML lexicon file", t, func() {
		ctx := context.Background()

		Convey("When it overrides some lists", func() {
			path := writeLexicon(t, `
bullish:
  - "  Wagmi "
  - wagmi
  - Bullish
negations: [nope]
`)
			lx, err := lexicon.Load(ctx, path)

			Convey("Then overridden lists are normalized and the rest keep defaults", func() {
				So(err, ShouldBeNil)
				So(lx.Bullish, ShouldResemble, []string{"wagmi", "bullish"})
				So(lx.Negations, ShouldResemble, []string{"nope"})
				So(lx.Bearish, ShouldResemble, lexicon.Default().Bearish)
			})
		})

		Convey("When it empties every keyword list", func() {
			path := writeLexicon(t, `
bullish: []
bearish: []
high_conviction_bullish: []
high_conviction_bearish: []
`)
			_, err := lexicon.Load(ctx, path)

			Convey("Then loading should fail", func() {
				So(errors.Is(err, lexicon.ErrEmptyLexicon), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := lexicon.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			Convey("Then loading should fail with a load error", func() {
				So(errors.Is(err, lexicon.ErrLoadLexicon), ShouldBeTrue)
			})
		})
	})
}

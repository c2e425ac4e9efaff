package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("SupportedLanguages", func(t *testing.T) {
		for _, s := range []string{"python", "javascript", "java", "cpp"} {
			lang, err := Parse(s)
			require.NoError(t, err)
			assert.Equal(t, Language(s), lang)
		}
	})

	t.Run("NormalizesCaseAndWhitespace", func(t *testing.T) {
		lang, err := Parse("  Python ")
		require.NoError(t, err)
		assert.Equal(t, Python, lang)
	})

	t.Run("UnknownLanguage", func(t *testing.T) {
		_, err := Parse("ruby")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownLanguage)
	})

	t.Run("EmptyString", func(t *testing.T) {
		_, err := Parse("")
		assert.ErrorIs(t, err, ErrUnknownLanguage)
	})
}

func TestFor(t *testing.T) {
	t.Run("EveryLanguageHasAProfile", func(t *testing.T) {
		for _, lang := range All() {
			p, err := For(lang)
			require.NoError(t, err)
			assert.Equal(t, lang, p.Language)
			assert.NotEmpty(t, p.RunTemplate)
			assert.NotEmpty(t, p.Extension)
			assert.Equal(t, DefaultRunTimeout, p.RunTimeout)
		}
	})

	t.Run("InterpretedLanguagesHaveNoCompileStage", func(t *testing.T) {
		for _, lang := range []Language{Python, JavaScript} {
			p, err := For(lang)
			require.NoError(t, err)
			assert.False(t, p.Compiled)
			assert.Empty(t, p.CompileTemplate)
			assert.Empty(t, p.CompilerBinary)
		}
	})

	t.Run("CompiledLanguages", func(t *testing.T) {
		for _, lang := range []Language{Java, CPP} {
			p, err := For(lang)
			require.NoError(t, err)
			assert.True(t, p.Compiled)
			assert.NotEmpty(t, p.CompileTemplate)
			assert.NotEmpty(t, p.CompilerBinary)
			assert.Equal(t, 30*time.Second, p.CompileTimeout)
		}
	})

	t.Run("JavaIsJVMStyle", func(t *testing.T) {
		p, err := For(Java)
		require.NoError(t, err)
		assert.True(t, p.JVMStyle)
		assert.Contains(t, p.RunTemplate, "{class}")
	})

	t.Run("UnknownLanguage", func(t *testing.T) {
		_, err := For(Language("go"))
		assert.ErrorIs(t, err, ErrUnknownLanguage)
	})
}

func TestBinaries(t *testing.T) {
	t.Run("Interpreted", func(t *testing.T) {
		p, err := For(Python)
		require.NoError(t, err)
		assert.Equal(t, []string{"python3"}, p.Binaries())
	})

	t.Run("CompilerFirst", func(t *testing.T) {
		p, err := For(Java)
		require.NoError(t, err)
		assert.Equal(t, []string{"javac", "java"}, p.Binaries())
	})

	t.Run("NativeHasOnlyCompiler", func(t *testing.T) {
		p, err := For(CPP)
		require.NoError(t, err)
		assert.Equal(t, []string{"g++"}, p.Binaries())
	})
}

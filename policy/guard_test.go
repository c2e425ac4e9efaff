package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dmarkx/runbox/config"
	"github.com/dmarkx/runbox/profile"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	cfg := &config.Config{
		Policy: config.PolicyConfig{MaxSourceBytes: 10000},
	}
	guard, err := NewGuard(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return guard
}

var helloWorld = map[profile.Language]string{
	profile.Python:     `print("Hello, World!")`,
	profile.JavaScript: `console.log("Hello, World!")`,
	profile.Java:       `public class Main { public static void main(String[] a){System.out.println("hi");} }`,
	profile.CPP:        "#include <iostream>\nint main(){std::cout<<\"x\";}",
}

func TestCheckAcceptsHelloWorld(t *testing.T) {
	guard := newTestGuard(t)

	for lang, source := range helloWorld {
		t.Run(string(lang), func(t *testing.T) {
			assert.NoError(t, guard.Check(source, lang))
		})
	}
}

func TestCheckSizeLimit(t *testing.T) {
	guard := newTestGuard(t)
	oversized := strings.Repeat("a", 10001)

	for _, lang := range profile.All() {
		t.Run(string(lang), func(t *testing.T) {
			err := guard.Check(oversized, lang)
			require.Error(t, err)
			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Contains(t, v.Rule, "exceeds")
		})
	}
}

func TestCheckDenylist(t *testing.T) {
	guard := newTestGuard(t)

	cases := []struct {
		name   string
		lang   profile.Language
		source string
	}{
		{"PythonEval", profile.Python, `eval("1+1")`},
		{"PythonImportOS", profile.Python, "import os\nprint(1)"},
		{"PythonSubprocess", profile.Python, `subprocess.run(["ls"])`},
		{"PythonOpen", profile.Python, `open("/etc/passwd")`},
		{"PythonFromSysImport", profile.Python, "from sys import path"},
		{"JavaScriptEval", profile.JavaScript, `eval("1")`},
		{"JavaScriptFetch", profile.JavaScript, `fetch("http://example.com")`},
		{"JavaScriptRequire", profile.JavaScript, `const fs = require("fs")`},
		{"JavaRuntime", profile.Java, `Runtime.getRuntime().exec("ls");`},
		{"JavaProcessBuilder", profile.Java, `new ProcessBuilder("ls");`},
		{"JavaReflect", profile.Java, `import java.lang.reflect.Method;`},
		{"CPPSystem", profile.CPP, `int main(){system("ls");}`},
		{"CPPUnistd", profile.CPP, `#include <unistd.h>`},
		{"CPPSysHeader", profile.CPP, `#include <sys/types.h>`},
		{"CPPMalloc", profile.CPP, `int main(){void* p = malloc(8);}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := guard.Check(tc.source, tc.lang)
			require.Error(t, err)
			var v *Violation
			assert.ErrorAs(t, err, &v)
		})
	}
}

func TestCheckDenylistIsCaseInsensitive(t *testing.T) {
	guard := newTestGuard(t)
	err := guard.Check(`EVAL("1+1")`, profile.Python)
	assert.Error(t, err)
}

func TestCheckPythonImports(t *testing.T) {
	guard := newTestGuard(t)

	t.Run("AllowedImports", func(t *testing.T) {
		source := "import math\nimport json, random\nfrom collections import deque\nprint(math.pi)"
		assert.NoError(t, guard.Check(source, profile.Python))
	})

	t.Run("DangerousModule", func(t *testing.T) {
		err := guard.Check("import pickle\nprint(1)", profile.Python)
		require.Error(t, err)
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Rule, "pickle")
	})

	t.Run("DangerousModuleInCommaList", func(t *testing.T) {
		err := guard.Check("import math, socket", profile.Python)
		require.Error(t, err)
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Rule, "socket")
	})

	t.Run("AliasedImport", func(t *testing.T) {
		err := guard.Check("import ctypes as c", profile.Python)
		assert.Error(t, err)
	})

	t.Run("UnknownButNotDangerous", func(t *testing.T) {
		// Unlisted modules are allowed through; the denylist is the
		// authoritative reject path.
		assert.NoError(t, guard.Check("import numpy", profile.Python))
	})
}

func TestCheckResidual(t *testing.T) {
	guard := newTestGuard(t)

	cases := []struct {
		name   string
		lang   profile.Language
		source string
	}{
		{"PythonDunder", profile.Python, `x = (1).__class__`},
		{"PythonCompileBuiltin", profile.Python, `compile("1", "<s>", "eval")`},
		{"JavaScriptPrototype", profile.JavaScript, `Array.prototype = {}`},
		{"JavaScriptConstructor", profile.JavaScript, `x.constructor("alert(1)")`},
		{"JavaGetClass", profile.Java, `Object o = ""; o.getClass();`},
		{"JavaNative", profile.Java, `public native void poke();`},
		{"CPPPointerOffset", profile.CPP, `int main(){int a[2]; int b = *(a + 1);}`},
		{"CPPInlineAsm", profile.CPP, `int main(){asm("nop");}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, guard.Check(tc.source, tc.lang))
		})
	}
}

func TestCheckUnknownLanguageFailsClosed(t *testing.T) {
	guard := newTestGuard(t)
	err := guard.Check("puts 'hi'", profile.Language("ruby"))
	require.Error(t, err)
	var v *Violation
	assert.ErrorAs(t, err, &v)
}

func TestViolations(t *testing.T) {
	guard := newTestGuard(t)

	t.Run("CleanSource", func(t *testing.T) {
		assert.Empty(t, guard.Violations(helloWorld[profile.Python], profile.Python))
	})

	t.Run("MultipleFindings", func(t *testing.T) {
		source := "import os\neval('1')"
		found := guard.Violations(source, profile.Python)
		assert.GreaterOrEqual(t, len(found), 2)
	})

	t.Run("OversizedSource", func(t *testing.T) {
		found := guard.Violations(strings.Repeat("b", 10001), profile.JavaScript)
		require.NotEmpty(t, found)
		assert.Contains(t, found[0], "exceeds")
	})
}

// Package healthcheck 检查部署所需的环境变量和文件
package healthcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const EnvFile = ".env.local"

// RequiredEnv 缺失任何一个都视为严重问题
var RequiredEnv = []string{
	"REACT_APP_FIREBASE_API_KEY",
	"REACT_APP_FIREBASE_AUTH_DOMAIN",
	"REACT_APP_FIREBASE_PROJECT_ID",
	"REACT_APP_FIREBASE_STORAGE_BUCKET",
	"REACT_APP_FIREBASE_MESSAGING_SENDER_ID",
	"REACT_APP_FIREBASE_APP_ID",
}

var OptionalEnv = []string{
	"REACT_APP_OPENAI_API_KEY",
	"REACT_APP_GOOGLE_SEARCH_API_KEY",
	"REACT_APP_BING_SEARCH_API_KEY",
	"REACT_APP_STRIPE_PUBLISHABLE_KEY",
	"REACT_APP_SENTRY_DSN",
	"REACT_APP_ADMIN_EMAILS",
	"NODE_ENV",
	"GENERATE_SOURCEMAP",
}

var RequiredFiles = []string{
	"configs/config.yaml",
}

var RecommendedFiles = []string{
	EnvFile,
	".gitignore",
	"README.md",
}

type Severity string

const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
)

type Issue struct {
	Severity Severity
	Name     string
	Message  string
}

type Report struct {
	Critical []Issue
	Warnings []Issue
	Passed   []string
}

func (r *Report) add(sev Severity, name, msg string) {
	issue := Issue{Severity: sev, Name: name, Message: msg}
	if sev == Critical {
		r.Critical = append(r.Critical, issue)
	} else {
		r.Warnings = append(r.Warnings, issue)
	}
}

// ExitCode 存在严重问题时返回 1
func (r *Report) ExitCode() int {
	if len(r.Critical) > 0 {
		return 1
	}
	return 0
}

// MissingEnv 缺失的必需环境变量
func (r *Report) MissingEnv() []string {
	var names []string
	for _, i := range r.Critical {
		if strings.HasPrefix(i.Name, "REACT_APP_") {
			names = append(names, i.Name)
		}
	}
	return names
}

// LoadEnv 读取 dir 下的 .env.local，并以进程环境变量覆盖
func LoadEnv(dir string) (map[string]string, error) {
	env := make(map[string]string)
	fileEnv, err := godotenv.Read(filepath.Join(dir, EnvFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", EnvFile, err)
	}
	for k, v := range fileEnv {
		env[k] = v
	}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env, nil
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(v)
	return strings.HasPrefix(v, "your_") || strings.HasPrefix(v, "your-") || v == "changeme"
}

// Check 检查环境变量和文件，不做任何输出
func Check(dir string, env map[string]string) *Report {
	r := &Report{}

	for _, name := range RequiredEnv {
		v := strings.TrimSpace(env[name])
		switch {
		case v == "":
			r.add(Critical, name, "missing required environment variable")
		case isPlaceholder(v):
			r.add(Critical, name, "still set to a placeholder value")
		default:
			r.Passed = append(r.Passed, name)
		}
	}
	for _, name := range OptionalEnv {
		if strings.TrimSpace(env[name]) == "" {
			r.add(Warning, name, "optional environment variable not set")
		} else {
			r.Passed = append(r.Passed, name)
		}
	}

	for _, f := range RequiredFiles {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			r.add(Critical, f, "required file not found")
		} else {
			r.Passed = append(r.Passed, f)
		}
	}
	for _, f := range RecommendedFiles {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			r.add(Warning, f, "recommended file not found")
		} else {
			r.Passed = append(r.Passed, f)
		}
	}
	return r
}

// Print 输出彩色报告
func Print(w io.Writer, r *Report) {
	title := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	title.Fprintln(w, "AI Education Platform health check")
	fmt.Fprintln(w)

	for _, p := range r.Passed {
		green.Fprintf(w, "  ✔ %s\n", p)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintf(w, "Warnings (%d):\n", len(r.Warnings))
		for _, i := range r.Warnings {
			yellow.Fprintf(w, "  ⚠ %s: %s\n", i.Name, i.Message)
		}
	}
	if len(r.Critical) > 0 {
		fmt.Fprintln(w)
		red.Fprintf(w, "Critical issues (%d):\n", len(r.Critical))
		for _, i := range r.Critical {
			red.Fprintf(w, "  ✖ %s: %s\n", i.Name, i.Message)
		}
	}

	fmt.Fprintln(w)
	if r.ExitCode() != 0 {
		red.Fprintln(w, "Health check failed.")
		return
	}
	green.Fprintln(w, "Health check passed.")
}

//go:build ruleguard

// Package gorules defines the project's custom linter rules, run by gocritic's ruleguard checker.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StdErrorsNew flags bare errors.New in service code. Errors that reach a caller
// need a category so the API can map them to a status code.
func StdErrorsNew(m dsl.Matcher) {
	m.Import("errors")

	m.Match(`errors.New($msg)`).
		Where(m.File().Imports("errors") &&
			m.File().PkgPath.Matches(`internal/(listing|matching|catalog|datastore|auth)$`) &&
			!m.File().Name.Matches(`_test\.go$`)).
		Report(`use errors.Newf($msg).Category(...).Component(...).Build() from internal/errors`)
}

// ServiceClock flags time.Now in the lifecycle service, which must use its injected clock.
func ServiceClock(m dsl.Matcher) {
	m.Match(`time.Now()`).
		Where(m.File().PkgPath.Matches(`internal/listing$`) &&
			m.File().Name.Matches(`^service\.go$`)).
		Report(`use s.now() so tests control time`)
}

// LoggerSprintf flags formatted log messages. Values belong in typed fields.
func LoggerSprintf(m dsl.Matcher) {
	m.Match(
		`$log.Info(fmt.Sprintf($*_), $*_)`,
		`$log.Warn(fmt.Sprintf($*_), $*_)`,
		`$log.Error(fmt.Sprintf($*_), $*_)`,
		`$log.Debug(fmt.Sprintf($*_), $*_)`,
	).
		Where(m["log"].Type.Implements(`github.com/estatehub/listingguard/internal/logger.Logger`)).
		Report(`use a constant message with logger.String/Int/... fields instead of fmt.Sprintf`)
}

// TestContext suggests t.Context() over context.Background() in tests (Go 1.24+).
func TestContext(m dsl.Matcher) {
	m.Match(`context.Background()`).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report(`use t.Context() in tests so work is cancelled when the test ends`)
}

// WaitGroupGo suggests wg.Go over the manual Add/Done pattern (Go 1.25+).
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done").
		Suggest("$wg.Go(func() { $body })")
}

// Package news provides the Search_News tool.
//
// The tool asks its providers for recent news on a query and formats the
// articles as one line each, in the form "- [date] title (source): body":
//
//	Search_News("COP30")
//	- [2025-11-10] COP30 opens in Belem (reuters.com): Delegates gathered...
//
// Providers are tried in order and the first one returning articles wins.
// When the recent-news search comes back empty the tool retries once as a
// general web search for "<query> news". Two providers ship with the
// package:
//
//   - Brave: the Brave Search news API, used when an API key is configured
//   - DuckDuckGo: the keyless HTML endpoint, rate limited to one query per second
//
// Network failures never abort the agent: the tool returns an error, which
// the registry turns into a "Critical error in search tool" observation, and
// an empty result set produces a fixed no-results message.
package news

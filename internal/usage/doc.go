// Package usage turns the platform's per-app usage accounting into the
// records the rest of habitlens displays.
//
// The pipeline is:
//
//	Windows (today, yesterday, past N days, a date)
//	  -> QueryAdapter (permission-gated read of daily aggregates)
//	  -> Normalizer (drop idle, uninstalled and system apps; attach labels)
//	  -> []UsageInfo
//
// Aggregator wires the three stages together. Ranking and totals are left to
// consumers (see package analyzer); the normalizer only filters and maps and
// preserves the order the platform returned.
package usage

// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package trust implements the heuristic trust and antifraud evaluator.

Listing trust starts at 1.0 and loses a fixed penalty for each weakness:
missing or few photos, a short description, missing coordinates, a price
under the category floor, no rating and no reviews, a stale source update,
and low overall completeness. The result is scaled by a per-source
multiplier and clamped to [0,1]. A listing is suspicious when it collects
enough flags or its score drops under the suspicious threshold.

Owner trust starts at a base level and gains tiered bonuses for completed
bookings, average rating, review volume and recent booking activity.

ShouldSuppress is the inline filter the navigator applies before scoring.
The Reevaluator is the separate batch pass that persists isSuspicious and
isHidden on aggregated records.

Every threshold and penalty lives in Config. The evaluator never persists
anything itself.
*/
package trust

// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package navigator runs a search session from intent to recommendation.

Each Recommend call is a single pass:

 1. validate the intent (ErrInvalidIntent, nothing persisted)
 2. open a search session
 3. load the user's preference profile, if any
 4. retrieve candidates from the catalog or from aggregation
 5. drop candidates the trust evaluator suppresses
 6. score and rank the rest
 7. persist the best match, alternatives and explanation

An empty candidate set after filtering ends the session as no-match without a
recommendation row. Feedback is a later, independent update that never
re-runs scoring.
*/
package navigator

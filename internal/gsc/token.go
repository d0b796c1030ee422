package gsc

// AccessToken pairs a bearer token with the stable identity of the
// credential that minted it. Quota pacing keys on the identity, so a
// refreshed bearer for the same credential keeps drawing from the same
// bucket.
type AccessToken struct {
	Identity string
	Bearer   string
}

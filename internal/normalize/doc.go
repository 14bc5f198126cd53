// Package normalize provides the canonical value tables shared by the
// request side and the dataset side so that matching stays symmetric.
package normalize

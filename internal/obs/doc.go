// Package obs builds the zap logger used by the sessiond binary.
package obs

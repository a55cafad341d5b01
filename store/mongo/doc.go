// Package mongo stores principals and their refresh digests in a MongoDB
// collection using the official driver.
package mongo

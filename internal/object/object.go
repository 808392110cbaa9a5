// Package object implements the simulated entities of a shooting session:
// disks, explosions and the rifle.
package object

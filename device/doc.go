// Package device
// Author: momentics <momentics@gmail.com>
//
// Command dispatcher for the FIFO device. A Device owns one ring buffer and
// serializes every request on it with a single mutex; Handle adapts a Device
// to read/write/ioctl style transports.
//
// Requests never block: a put into a full FIFO or a get from an empty one
// completes immediately with a short or zero count.
package device

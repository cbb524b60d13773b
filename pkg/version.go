package memorynet

// Version is the current release of memorynet.
const Version = "0.1.0"

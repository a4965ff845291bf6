package refgraph

// Version is the release reported by the refgraph command.
const Version = "0.3.0"

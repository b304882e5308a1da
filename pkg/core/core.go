package core

const (
	KindAudio = "audio"
	KindVideo = "video"
)

const (
	TypeSimple    = "simple"    // single encoding mirrored from the producer
	TypeSimulcast = "simulcast" // multiple spatial encodings, engine selects one
	TypeSVC       = "svc"       // one encoding with spatial/temporal layers
	TypePipe      = "pipe"      // router to router forwarding
)

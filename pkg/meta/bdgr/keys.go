package bdgr

// Key layout. Entity names are validated to exclude ':' so the
// separator is unambiguous.

const (
	repoPref   = "repo:"
	vsetPref   = "vset:"
	volPref    = "vol:"
	commitPref = "commit:"
	remotePref = "remote:"
	seqName    = "seq:commits"
)

func repoKey(name string) []byte {
	return []byte(repoPref + name)
}

func vsetKey(repository, id string) []byte {
	return []byte(vsetPref + repository + ":" + id)
}

func vsetPrefix(repository string) []byte {
	return []byte(vsetPref + repository + ":")
}

func volKey(repository, volumeSet, name string) []byte {
	return []byte(volPref + repository + ":" + volumeSet + ":" + name)
}

func volPrefix(repository, volumeSet string) []byte {
	return []byte(volPref + repository + ":" + volumeSet + ":")
}

func commitKey(repository, id string) []byte {
	return []byte(commitPref + repository + ":" + id)
}

func commitPrefix(repository string) []byte {
	return []byte(commitPref + repository + ":")
}

func remoteKey(repository, name string) []byte {
	return []byte(remotePref + repository + ":" + name)
}

func remotePrefix(repository string) []byte {
	return []byte(remotePref + repository + ":")
}

func seqKey() []byte {
	return []byte(seqName)
}

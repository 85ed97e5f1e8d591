package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the record types stored in Badger values. They are
// written by hand in the same Marshal/Unmarshal/Size shape generated
// serializers expose; the field order below is the wire order and must not
// change without a data migration.

var (
	// IDMUS serializes an ID.
	IDMUS = idMUS{}
	// ProfileMUS serializes a Profile.
	ProfileMUS = profileMUS{}
	// MatchRecordMUS serializes a MatchRecord.
	MatchRecordMUS = matchRecordMUS{}
	// ContactLogEntryMUS serializes a ContactLogEntry.
	ContactLogEntryMUS = contactLogEntryMUS{}
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (s idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// Timestamps are stored as microseconds since the Unix epoch.

func marshalTime(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

type profileMUS struct{}

func (s profileMUS) Marshal(v Profile, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Email, bs[n:])
	n += ord.String.Marshal(v.Organization, bs[n:])
	n += varint.PositiveInt.Marshal(int(v.Population), bs[n:])
	n += ord.String.Marshal(v.Department, bs[n:])
	n += ord.String.Marshal(v.ExpertiseAreas, bs[n:])
	n += ord.String.Marshal(v.ExperienceSummary, bs[n:])
	n += ord.String.Marshal(v.SectorsInterested, bs[n:])
	n += ord.String.Marshal(v.OrganizationFocus, bs[n:])
	n += ord.String.Marshal(v.ChallengeDescription, bs[n:])
	n += ord.String.Marshal(v.ExpertiseSought, bs[n:])
	n += ord.String.Marshal(v.LabToursInterested, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (s profileMUS) Unmarshal(bs []byte) (v Profile, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Email, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Organization, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var tag int
	if tag, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Population = PopulationTag(tag)
	n += n1
	for _, field := range []*string{
		&v.Department, &v.ExpertiseAreas, &v.ExperienceSummary, &v.SectorsInterested,
		&v.OrganizationFocus, &v.ChallengeDescription, &v.ExpertiseSought, &v.LabToursInterested,
	} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s profileMUS) Size(v Profile) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.Email)
	size += ord.String.Size(v.Organization)
	size += varint.PositiveInt.Size(int(v.Population))
	size += ord.String.Size(v.Department)
	size += ord.String.Size(v.ExpertiseAreas)
	size += ord.String.Size(v.ExperienceSummary)
	size += ord.String.Size(v.SectorsInterested)
	size += ord.String.Size(v.OrganizationFocus)
	size += ord.String.Size(v.ChallengeDescription)
	size += ord.String.Size(v.ExpertiseSought)
	size += ord.String.Size(v.LabToursInterested)
	size += sizeTime(v.CreatedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

type matchRecordMUS struct{}

func (s matchRecordMUS) Marshal(v MatchRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.SourceId, bs[n:])
	n += IDMUS.Marshal(v.CandidateId, bs[n:])
	n += raw.Float32.Marshal(v.Score, bs[n:])
	n += varint.PositiveInt.Marshal(v.Rank, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (s matchRecordMUS) Unmarshal(bs []byte) (v MatchRecord, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.SourceId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CandidateId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Score, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Rank, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s matchRecordMUS) Size(v MatchRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.SourceId)
	size += IDMUS.Size(v.CandidateId)
	size += raw.Float32.Size(v.Score)
	size += varint.PositiveInt.Size(v.Rank)
	size += sizeTime(v.CreatedAt)
	return size
}

type contactLogEntryMUS struct{}

func (s contactLogEntryMUS) Marshal(v ContactLogEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.SeekerId, bs[n:])
	n += IDMUS.Marshal(v.ProviderId, bs[n:])
	n += marshalTime(v.SentAt, bs[n:])
	return n
}

func (s contactLogEntryMUS) Unmarshal(bs []byte) (v ContactLogEntry, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.SeekerId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ProviderId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SentAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s contactLogEntryMUS) Size(v ContactLogEntry) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.SeekerId)
	size += IDMUS.Size(v.ProviderId)
	size += sizeTime(v.SentAt)
	return size
}

// Web API response types based on https://developer.spotify.com/documentation/web-api/reference/

package catalog

type Followers struct {
	Total int `json:"total"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type ExternalIDs struct {
	ISRC string `json:"isrc"`
	UPC  string `json:"upc,omitempty"`
}

// Profile represents a Spotify user profile.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Country     string    `json:"country,omitempty"`
	Product     string    `json:"product,omitempty"` // premium, free, etc.
	Followers   Followers `json:"followers"`
	Images      []Image   `json:"images"`
	URI         string    `json:"uri"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres,omitempty"`
	Images     []Image   `json:"images,omitempty"`
	Popularity int       `json:"popularity,omitempty"`
	Followers  Followers `json:"followers"`
	URI        string    `json:"uri"`
}

// Album represents a Spotify album. Tracks is only populated by the single-album endpoint.
type Album struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AlbumType   string      `json:"album_type"`
	Artists     []Artist    `json:"artists"`
	ReleaseDate string      `json:"release_date"`
	TotalTracks int         `json:"total_tracks"`
	Images      []Image     `json:"images"`
	Label       string      `json:"label,omitempty"`
	ExternalIDs ExternalIDs `json:"external_ids"`
	Tracks      *TrackPage  `json:"tracks,omitempty"`
	URI         string      `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Artists     []Artist    `json:"artists"`
	Album       *Album      `json:"album,omitempty"`
	DurationMS  int         `json:"duration_ms"`
	Explicit    bool        `json:"explicit"`
	ExternalIDs ExternalIDs `json:"external_ids"`
	Popularity  int         `json:"popularity"`
	TrackNumber int         `json:"track_number"`
	URI         string      `json:"uri"`
}

// Show represents a podcast show.
type Show struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Publisher     string  `json:"publisher"`
	Description   string  `json:"description"`
	TotalEpisodes int     `json:"total_episodes"`
	Images        []Image `json:"images"`
	URI           string  `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Playlist represents a full Spotify playlist.
type Playlist struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Owner         Owner             `json:"owner"`
	Public        bool              `json:"public"`
	Collaborative bool              `json:"collaborative"`
	Followers     Followers         `json:"followers"`
	Tracks        PlaylistTrackPage `json:"tracks"`
	Images        []Image           `json:"images"`
	SnapshotID    string            `json:"snapshot_id"`
	URI           string            `json:"uri"`
}

type playlistTrackCount struct {
	Total int `json:"total"`
}

// SimplePlaylist is the playlist object returned inside listings.
type SimplePlaylist struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Owner       Owner              `json:"owner"`
	Public      bool               `json:"public"`
	Tracks      playlistTrackCount `json:"tracks"`
	Images      []Image            `json:"images"`
	URI         string             `json:"uri"`
}

// PlaylistExport is a playlist together with all of its tracks.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// PlaylistTrack represents a track within a playlist context.
type PlaylistTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// SavedTrack represents a track saved in the user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// SavedAlbum represents an album saved in the user's library.
type SavedAlbum struct {
	AddedAt string `json:"added_at"`
	Album   Album  `json:"album"`
}

// SavedShow represents a show the user follows.
type SavedShow struct {
	AddedAt string `json:"added_at"`
	Show    Show   `json:"show"`
}

// Audiobook represents an audiobook saved in the user's library.
type Audiobook struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Authors       []Person `json:"authors"`
	Narrators     []Person `json:"narrators"`
	Publisher     string   `json:"publisher"`
	Description   string   `json:"description"`
	TotalChapters int      `json:"total_chapters"`
	Images        []Image  `json:"images"`
	URI           string   `json:"uri"`
}

type Person struct {
	Name string `json:"name"`
}

// Episode represents a podcast episode.
type Episode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DurationMS  int    `json:"duration_ms"`
	ReleaseDate string `json:"release_date"`
	Show        *Show  `json:"show,omitempty"`
	URI         string `json:"uri"`
}

// SavedEpisode represents an episode in the user's library.
type SavedEpisode struct {
	AddedAt string  `json:"added_at"`
	Episode Episode `json:"episode"`
}

// Cursors positions a cursor-based page.
type Cursors struct {
	After  string `json:"after"`
	Before string `json:"before,omitempty"`
}

// CursorPage is the paging object used by endpoints that page by cursor instead of offset.
type CursorPage[T any] struct {
	Items   []T     `json:"items"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Next    *string `json:"next"`
	Cursors Cursors `json:"cursors"`
}

// Page is the Web API's paging object.
type Page[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

type (
	TrackPage         = Page[Track]
	AlbumPage         = Page[Album]
	ArtistPage        = Page[Artist]
	PlaylistPage      = Page[SimplePlaylist]
	PlaylistTrackPage = Page[PlaylistTrack]
	SavedTrackPage    = Page[SavedTrack]
	SavedAlbumPage    = Page[SavedAlbum]
	SavedShowPage     = Page[SavedShow]
	AudiobookPage     = Page[Audiobook]
	SavedEpisodePage  = Page[SavedEpisode]
	ArtistCursorPage  = CursorPage[Artist]
)

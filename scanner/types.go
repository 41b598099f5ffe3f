package scanner

// TrustResult is one trustypkg.dev package report. The upstream shape is not
// guaranteed, so every field is optional and omitted when absent.
type TrustResult struct {
	ID                 *string        `json:"id,omitempty" yaml:"id,omitempty"`
	Status             *string        `json:"status,omitempty" yaml:"status,omitempty"`
	StatusCode         any            `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Name               *string        `json:"name,omitempty" yaml:"name,omitempty"`
	Type               *string        `json:"type,omitempty" yaml:"type,omitempty"`
	Version            *string        `json:"version,omitempty" yaml:"version,omitempty"`
	VersionDate        *string        `json:"version_date,omitempty" yaml:"version_date,omitempty"`
	Author             *string        `json:"author,omitempty" yaml:"author,omitempty"`
	AuthorEmail        *string        `json:"author_email,omitempty" yaml:"author_email,omitempty"`
	PackageDescription *string        `json:"package_description,omitempty" yaml:"package_description,omitempty"`
	RepoDescription    *string        `json:"repo_description,omitempty" yaml:"repo_description,omitempty"`
	Origin             *string        `json:"origin,omitempty" yaml:"origin,omitempty"`
	StargazersCount    *int64         `json:"stargazers_count,omitempty" yaml:"stargazers_count,omitempty"`
	WatchersCount      *int64         `json:"watchers_count,omitempty" yaml:"watchers_count,omitempty"`
	HomePage           *string        `json:"home_page,omitempty" yaml:"home_page,omitempty"`
	HasIssues          *bool          `json:"has_issues,omitempty" yaml:"has_issues,omitempty"`
	HasProjects        *bool          `json:"has_projects,omitempty" yaml:"has_projects,omitempty"`
	HasDownloads       *bool          `json:"has_downloads,omitempty" yaml:"has_downloads,omitempty"`
	ForksCount         *int64         `json:"forks_count,omitempty" yaml:"forks_count,omitempty"`
	Archived           *bool          `json:"archived,omitempty" yaml:"archived,omitempty"`
	IsDeprecated       *bool          `json:"is_deprecated,omitempty" yaml:"is_deprecated,omitempty"`
	Disabled           *bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	OpenIssuesCount    *int64         `json:"open_issues_count,omitempty" yaml:"open_issues_count,omitempty"`
	Visibility         *string        `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	DefaultBranch      *string        `json:"default_branch,omitempty" yaml:"default_branch,omitempty"`
	RepositoryID       *string        `json:"repository_id,omitempty" yaml:"repository_id,omitempty"`
	RepositoryName     *string        `json:"repository_name,omitempty" yaml:"repository_name,omitempty"`
	ContributorCount   *int64         `json:"contributor_count,omitempty" yaml:"contributor_count,omitempty"`
	PublicRepos        *int64         `json:"public_repos,omitempty" yaml:"public_repos,omitempty"`
	PublicGists        *int64         `json:"public_gists,omitempty" yaml:"public_gists,omitempty"`
	Followers          *int64         `json:"followers,omitempty" yaml:"followers,omitempty"`
	Following          *int64         `json:"following,omitempty" yaml:"following,omitempty"`
	Owner              *Owner         `json:"owner,omitempty" yaml:"owner,omitempty"`
	Contributors       []Owner        `json:"contributors,omitempty" yaml:"contributors,omitempty"`
	LastUpdate         *string        `json:"last_update,omitempty" yaml:"last_update,omitempty"`
	Scores             map[string]any `json:"scores,omitempty" yaml:"scores,omitempty"`
	Malicious          any            `json:"malicious,omitempty" yaml:"malicious,omitempty"`
	Purl               *string        `json:"purl,omitempty" yaml:"purl,omitempty"`
}

// Owner describes the repository owner or a contributor.
type Owner struct {
	ID              *string        `json:"id,omitempty" yaml:"id,omitempty"`
	Author          *string        `json:"author,omitempty" yaml:"author,omitempty"`
	AuthorEmail     *string        `json:"author_email,omitempty" yaml:"author_email,omitempty"`
	Login           *string        `json:"login,omitempty" yaml:"login,omitempty"`
	AvatarURL       *string        `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	GravatarID      *string        `json:"gravatar_id,omitempty" yaml:"gravatar_id,omitempty"`
	URL             *string        `json:"url,omitempty" yaml:"url,omitempty"`
	HTMLURL         *string        `json:"html_url,omitempty" yaml:"html_url,omitempty"`
	Company         *string        `json:"company,omitempty" yaml:"company,omitempty"`
	Blog            *string        `json:"blog,omitempty" yaml:"blog,omitempty"`
	Location        *string        `json:"location,omitempty" yaml:"location,omitempty"`
	Email           *string        `json:"email,omitempty" yaml:"email,omitempty"`
	Hireable        *bool          `json:"hireable,omitempty" yaml:"hireable,omitempty"`
	TwitterUsername any            `json:"twitter_username,omitempty" yaml:"twitter_username,omitempty"`
	PublicRepos     *int64         `json:"public_repos,omitempty" yaml:"public_repos,omitempty"`
	PublicGists     any            `json:"public_gists,omitempty" yaml:"public_gists,omitempty"`
	Followers       *int64         `json:"followers,omitempty" yaml:"followers,omitempty"`
	Following       *int64         `json:"following,omitempty" yaml:"following,omitempty"`
	Scores          map[string]any `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// IsArchived and the helpers below read optional flags, treating absence as false.
func (r TrustResult) IsArchived() bool {
	return r.Archived != nil && *r.Archived
}

func (r TrustResult) Deprecated() bool {
	return r.IsDeprecated != nil && *r.IsDeprecated
}

// IsMalicious reports whether upstream flagged the package. The field is free-form
// upstream, so any non-empty, non-false value counts.
func (r TrustResult) IsMalicious() bool {
	switch v := r.Malicious.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func (r TrustResult) PurlString() string {
	if r.Purl == nil {
		return ""
	}
	return *r.Purl
}

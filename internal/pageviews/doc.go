// Package pageviews implements the scrape pipeline for the analytics page:
// fetch the page, parse the Total Pageviews counter, compare it with the
// previously stored record, and persist the new record.
package pageviews

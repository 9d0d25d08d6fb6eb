package account

// AddFavourite adds productID to the favourites set.
// It reports whether the set changed; adding an existing favourite is a no-op.
func (u *User) AddFavourite(productID ProductRef) bool {
	if productID == "" || u.HasFavourite(productID) {
		return false
	}
	u.Favourites = append(u.Favourites, productID)
	u.touch()
	return true
}

// RemoveFavourite removes productID from the favourites set.
// It reports whether the set changed; removing an absent favourite is a no-op.
func (u *User) RemoveFavourite(productID ProductRef) bool {
	for i, id := range u.Favourites {
		if id == productID {
			u.Favourites = append(u.Favourites[:i], u.Favourites[i+1:]...)
			u.touch()
			return true
		}
	}
	return false
}

// HasFavourite reports whether productID is a favourite
func (u *User) HasFavourite(productID ProductRef) bool {
	for _, id := range u.Favourites {
		if id == productID {
			return true
		}
	}
	return false
}
